package bufferutil

// ReverseBytes returns a reversed copy of buf. Txids are displayed in the
// reverse of their wire order.
func ReverseBytes(buf []byte) []byte {
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[len(buf)-1-i] = b
	}
	return out
}
