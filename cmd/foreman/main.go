// Command foreman runs a supervised team of research workers from the
// terminal, over HTTP, or as an MCP server.
package main

func main() {
	Execute()
}
