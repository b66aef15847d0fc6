// Package demo holds a sample application served by the dispatcher. Its
// sub-packages register their components under the dotted root "demo".
package demo

//go:generate go run mvc-server/cmd/mvcgen -dir . -base demo
