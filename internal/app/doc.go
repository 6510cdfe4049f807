// Package app contains the core application logic. It defines the App
// struct, its layered settings and the load, build and export lifecycle,
// decoupled from any specific entrypoint like a CLI.
package app
