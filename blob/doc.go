// Package blob provides the primitives for moving Binary Large Object's (BLOBs) between
// readers and writers while proving their content.
//
// When working with BLOBs through this package, it is important to understand the following concepts:
//   - ReadOnlyBlob: An interface that represents a read-only BLOB.
//   - SizeAware: An interface that represents any arbitrary object that can be sized.
//   - DigestAware: An interface that represents any arbitrary object that can be digested.
//
// Additionally, the package provides the copy functions used when pulling from a registry:
//   - WriteTo: Streams a reader into a writer in a single pass with bounded memory, computing the
//     digest and size of everything that was seen. The result is an OCI descriptor of the received content.
//   - Copy: Copies data from a blob to any given io.Writer, while respecting SizeAware and
//     DigestAware for open-container type digests.
package blob
