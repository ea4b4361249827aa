// Command cyberguard submits content to the analysis backend from a terminal
// and prints the rendered result.
//
// Usage:
//
//	cyberguard text "Breaking: scientists confirm..."
//	cyberguard image photo.jpg
//	cyberguard video clip.mp4 --json
//	cyberguard status
//	cyberguard history list --type image --favorites
//	cyberguard render --kind text payload.json
package main

func main() {
	Execute()
}
