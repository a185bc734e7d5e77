package registry

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
)

// SignArtifact clearsigns the artifact at path with the ASCII-armored
// private key and writes the signed copy next to it as <path>.asc.
// Consumers that require integrity verify the .asc against the
// distributor's public key; the plain JSON artifact stays untouched.
func SignArtifact(path, armoredKey string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	signed, err := signBytes(content, armoredKey)
	if err != nil {
		return fmt.Errorf("signing %s: %w", path, err)
	}
	return os.WriteFile(path+".asc", signed, 0644)
}

func signBytes(input []byte, key string) ([]byte, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(key))
	if err != nil {
		return nil, err
	}
	var signer *openpgp.Entity
	for _, e := range entities {
		if e.PrivateKey != nil {
			signer = e
			break
		}
	}
	if signer == nil {
		return nil, fmt.Errorf("no private key")
	}

	var out bytes.Buffer
	w, err := clearsign.Encode(&out, signer.PrivateKey, nil)
	if err != nil {
		return nil, err
	}
	w.Write(input)
	w.Close()
	return out.Bytes(), nil
}
