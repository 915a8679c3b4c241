package crypto

// XorInplace XORs src into dst, stopping at the shorter of the two slices.
func XorInplace(dst, src []byte) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] ^= src[i]
	}
}
