// Command rowcore is the single-binary entrypoint for every processor
// of the structured-row indexing and query core: the config-driven
// row writer, embeddings computer, row embeddings writer, and the two
// synchronous query processors.
package main

func main() {
	Execute()
}
