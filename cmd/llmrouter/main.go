// Package main is the entry point for LLMRouter.
package main

func main() {
	Execute()
}
