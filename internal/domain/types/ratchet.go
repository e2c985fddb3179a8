package types

// RatchetHeader is sent alongside every ciphertext.
type RatchetHeader struct {
	DiffieHellmanPublicKey X25519Public `json:"dh_pub"`
	PreviousChainLength    uint32       `json:"pn"`
	MessageIndex           uint32       `json:"n"`
}

// RatchetMessage is the wire form of a steady-state message.
type RatchetMessage struct {
	Header     RatchetHeader `json:"header"`
	Ciphertext []byte        `json:"ciphertext"`
}

// RatchetState contains all fields the Double Ratchet needs to track.
type RatchetState struct {
	RootKey                 []byte            `json:"root_key"`
	DiffieHellmanPrivate    X25519Private     `json:"dh_priv"`
	DiffieHellmanPublic     X25519Public      `json:"dh_pub"`
	PeerDiffieHellmanPublic X25519Public      `json:"peer_dh_pub"`
	SendChainKey            []byte            `json:"send_ck,omitempty"`
	ReceiveChainKey         []byte            `json:"recv_ck,omitempty"`
	SendMessageIndex        uint32            `json:"ns"`
	ReceiveMessageIndex     uint32            `json:"nr"`
	PreviousChainLength     uint32            `json:"pn"`
	SkippedKeys             map[string][]byte `json:"skipped_keys"`
}

// Clone returns a deep copy so a failed operation can be discarded.
func (s RatchetState) Clone() RatchetState {
	out := s
	out.RootKey = append([]byte(nil), s.RootKey...)
	out.SendChainKey = cloneBytes(s.SendChainKey)
	out.ReceiveChainKey = cloneBytes(s.ReceiveChainKey)
	out.SkippedKeys = make(map[string][]byte, len(s.SkippedKeys))
	for k, v := range s.SkippedKeys {
		out.SkippedKeys[k] = append([]byte(nil), v...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
