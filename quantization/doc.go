// Package quantization implements the vector storage encodings used by the
// quantized vector store: full-precision float32, IEEE-754 binary16
// (float16), and a per-vector affine 8-bit encoding. Unlike codebook-based
// schemes, every encoding here is stateless and requires no training pass
// over a corpus; a vector is encoded independently of any other vector.
package quantization
