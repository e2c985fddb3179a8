package ratchet

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/util/memzero"
)

const (
	aeadKeySize  = 32
	nonceSize    = chacha20poly1305.NonceSize
	maxSkippedMK = 1000
)

var (
	// ErrSkippedKeyNotFound is returned for a message whose index is behind
	// the receiving chain and whose key is not stored. Replays land here.
	ErrSkippedKeyNotFound = errors.New("skipped message key not found")
	// ErrTooManySkipped is returned when a header asks to skip past the cap.
	ErrTooManySkipped = errors.New("too many skipped messages")

	errChainUninitialised = errors.New("ratchet chain key is uninitialised")
)

// InitAsInitiator seeds the sending chain from root using a fresh ratchet key
// and the peer's signed pre-key, which stands in for the peer's first ratchet
// key.
func InitAsInitiator(root []byte, peerRatchetPub domain.X25519Public) (domain.RatchetState, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.RatchetState{}, err
	}
	dh, err := crypto.DH(priv, peerRatchetPub)
	if err != nil {
		return domain.RatchetState{}, err
	}
	newRK, sendCK := kdfRK(root, dh[:])
	memzero.Zero(dh[:])

	return domain.RatchetState{
		RootKey:                 newRK,
		DiffieHellmanPrivate:    priv,
		DiffieHellmanPublic:     pub,
		PeerDiffieHellmanPublic: peerRatchetPub,
		SendChainKey:            sendCK,
		SkippedKeys:             make(map[string][]byte),
	}, nil
}

// InitAsResponder returns a state with no chains whose ratchet key pair is
// the signed pre-key. The first Decrypt performs the DH step that creates
// both chains.
func InitAsResponder(root []byte, spkPriv domain.X25519Private, spkPub domain.X25519Public) domain.RatchetState {
	return domain.RatchetState{
		RootKey:              append([]byte(nil), root...),
		DiffieHellmanPrivate: spkPriv,
		DiffieHellmanPublic:  spkPub,
		SkippedKeys:          make(map[string][]byte),
	}
}

// Encrypt produces a header and ciphertext and advances the sending chain.
// st is left untouched on error.
func Encrypt(st *domain.RatchetState, ad, plaintext []byte) (domain.RatchetHeader, []byte, error) {
	work := st.Clone()
	mk, err := kdfCKSend(&work)
	if err != nil {
		return domain.RatchetHeader{}, nil, err
	}
	defer memzero.Zero(mk)

	h := domain.RatchetHeader{
		DiffieHellmanPublicKey: work.DiffieHellmanPublic,
		PreviousChainLength:    work.PreviousChainLength,
		MessageIndex:           work.SendMessageIndex,
	}
	ct, err := seal(mk, h, ad, plaintext)
	if err != nil {
		return domain.RatchetHeader{}, nil, err
	}
	work.SendMessageIndex++
	*st = work
	return h, ct, nil
}

// Decrypt opens a message, stepping the DH ratchet when the header carries a
// new peer key and storing keys for any messages skipped on the way. It
// returns the plaintext and the message key used, which callers may archive
// to re-read the message later with Open. st is only updated on success.
func Decrypt(st *domain.RatchetState, ad []byte, header domain.RatchetHeader, ciphertext []byte) (plaintext, messageKey []byte, err error) {
	work := st.Clone()

	keyID := HistoryKey(header)
	if mk, ok := work.SkippedKeys[keyID]; ok {
		pt, err := Open(mk, header, ad, ciphertext)
		if err != nil {
			return nil, nil, err
		}
		delete(work.SkippedKeys, keyID)
		*st = work
		return pt, mk, nil
	}

	if header.DiffieHellmanPublicKey != work.PeerDiffieHellmanPublic || len(work.ReceiveChainKey) == 0 {
		if len(work.ReceiveChainKey) != 0 {
			if err := skipUntil(&work, header.PreviousChainLength); err != nil {
				return nil, nil, err
			}
		}
		if err := dhStep(&work, header.DiffieHellmanPublicKey); err != nil {
			return nil, nil, err
		}
	}

	if header.MessageIndex < work.ReceiveMessageIndex {
		return nil, nil, ErrSkippedKeyNotFound
	}
	if err := skipUntil(&work, header.MessageIndex); err != nil {
		return nil, nil, err
	}
	mk, err := kdfCKRecv(&work)
	if err != nil {
		return nil, nil, err
	}
	pt, err := Open(mk, header, ad, ciphertext)
	if err != nil {
		return nil, nil, err
	}
	work.ReceiveMessageIndex++
	*st = work
	return pt, mk, nil
}

// Open decrypts a ciphertext with an already derived message key. It does
// not touch any ratchet state.
func Open(mk []byte, header domain.RatchetHeader, ad, ciphertext []byte) ([]byte, error) {
	if len(mk) < aeadKeySize {
		return nil, fmt.Errorf("%w: short message key", domain.ErrDecryptAuthentication)
	}
	aead, err := chacha20poly1305.New(mk[:aeadKeySize])
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonceFor(header), ciphertext, associatedData(ad, header))
	if err != nil {
		return nil, domain.ErrDecryptAuthentication
	}
	return pt, nil
}

// HistoryKey names the message a header belongs to: the sender's ratchet
// key and the message index.
func HistoryKey(h domain.RatchetHeader) string {
	return hex.EncodeToString(h.DiffieHellmanPublicKey[:]) + ":" + strconv.FormatUint(uint64(h.MessageIndex), 10)
}

// dhStep moves to the peer's new ratchet key: a receiving chain from our
// current key, then a fresh key pair and a sending chain.
func dhStep(st *domain.RatchetState, peer domain.X25519Public) error {
	dh, err := crypto.DH(st.DiffieHellmanPrivate, peer)
	if err != nil {
		return err
	}
	rk, recvCK := kdfRK(st.RootKey, dh[:])
	memzero.Zero(dh[:])

	newPriv, newPub, err := crypto.GenerateX25519()
	if err != nil {
		return err
	}
	dh2, err := crypto.DH(newPriv, peer)
	if err != nil {
		return err
	}
	rk2, sendCK := kdfRK(rk, dh2[:])
	memzero.Zero(dh2[:])

	st.PreviousChainLength = st.SendMessageIndex
	st.SendMessageIndex, st.ReceiveMessageIndex = 0, 0
	st.RootKey = rk2
	st.DiffieHellmanPrivate, st.DiffieHellmanPublic = newPriv, newPub
	st.PeerDiffieHellmanPublic = peer
	st.SendChainKey, st.ReceiveChainKey = sendCK, recvCK
	return nil
}

func seal(mk []byte, header domain.RatchetHeader, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk[:aeadKeySize])
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonceFor(header), plaintext, associatedData(ad, header)), nil
}

func nonceFor(h domain.RatchetHeader) []byte {
	nonce := make([]byte, nonceSize)
	binary.BigEndian.PutUint32(nonce[nonceSize-4:], h.MessageIndex)
	return nonce
}

func associatedData(ad []byte, h domain.RatchetHeader) []byte {
	out := make([]byte, 0, len(ad)+len(h.DiffieHellmanPublicKey)+8)
	out = append(out, ad...)
	return append(out, headerBytes(h)...)
}

func headerBytes(h domain.RatchetHeader) []byte {
	out := make([]byte, 0, len(h.DiffieHellmanPublicKey)+8)
	out = append(out, h.DiffieHellmanPublicKey[:]...)
	out = binary.BigEndian.AppendUint32(out, h.PreviousChainLength)
	return binary.BigEndian.AppendUint32(out, h.MessageIndex)
}

// HKDF-based KDFs with labels.
func kdfRK(rk, dh []byte) (newRK, ck []byte) {
	r := hkdf.New(sha256.New, dh, rk, []byte("DR|rk"))
	newRK = make([]byte, 32)
	ck = make([]byte, 32)
	_, _ = io.ReadFull(r, newRK)
	_, _ = io.ReadFull(r, ck)
	return
}

func kdfCK(ck []byte) (nextCK, mk []byte) {
	r := hkdf.New(sha256.New, ck, nil, []byte("DR|ck"))
	nextCK = make([]byte, 32)
	mk = make([]byte, 32)
	_, _ = io.ReadFull(r, nextCK)
	_, _ = io.ReadFull(r, mk)
	return
}

func kdfCKSend(st *domain.RatchetState) ([]byte, error) {
	if len(st.SendChainKey) == 0 {
		return nil, errChainUninitialised
	}
	nextCK, mk := kdfCK(st.SendChainKey)
	st.SendChainKey = nextCK
	return mk, nil
}

func kdfCKRecv(st *domain.RatchetState) ([]byte, error) {
	if len(st.ReceiveChainKey) == 0 {
		return nil, errChainUninitialised
	}
	nextCK, mk := kdfCK(st.ReceiveChainKey)
	st.ReceiveChainKey = nextCK
	return mk, nil
}

// skipUntil derives and stores receiving keys up to (not including) n.
func skipUntil(st *domain.RatchetState, n uint32) error {
	if n <= st.ReceiveMessageIndex {
		return nil
	}
	if n-st.ReceiveMessageIndex > maxSkippedMK {
		return ErrTooManySkipped
	}
	if st.SkippedKeys == nil {
		st.SkippedKeys = make(map[string][]byte)
	}
	for st.ReceiveMessageIndex < n {
		mk, err := kdfCKRecv(st)
		if err != nil {
			return err
		}
		if len(st.SkippedKeys) >= maxSkippedMK {
			for k := range st.SkippedKeys {
				delete(st.SkippedKeys, k)
				break
			}
		}
		st.SkippedKeys[HistoryKey(domain.RatchetHeader{
			DiffieHellmanPublicKey: st.PeerDiffieHellmanPublic,
			MessageIndex:           st.ReceiveMessageIndex,
		})] = mk
		st.ReceiveMessageIndex++
	}
	return nil
}
