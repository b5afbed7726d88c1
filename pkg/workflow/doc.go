// Package workflow defines structured command descriptors for the
// lerobot CLI tools. Each descriptor validates its fields and renders
// an argument vector; no shell strings are ever concatenated, so
// quoting and injection bugs are closed off at the type level.
package workflow
