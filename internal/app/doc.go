// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the build lifecycle from configuration
// loading through plan execution, decoupled from any specific entrypoint.
package app
