// Package config defines the format-agnostic blueprint model: the declarative
// description of one pipeline or fragment that the builder turns into a
// document. Concrete loaders, such as the HCL one, live in separate packages.
package config
