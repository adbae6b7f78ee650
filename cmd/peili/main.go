// Peili - Cloud Inventory Mirror
// Resolve. Cache. Analyze.
package main

func main() {
	Execute()
}
