// Command metrologi runs the metrology office back-office service.
package main

func main() {
	Execute()
}
