// Copyright (c) 2025 The ZooDAO developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package policy

import (
	"crypto/ecdsa"
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/vechain/go-ecvrf"
)

// VRFFulfiller resolves pending random requests with a verifiable random
// output bound to the requesting epoch, so an observer holding the public
// key can audit every battle outcome.
type VRFFulfiller struct {
	base *Base
	sk   *ecdsa.PrivateKey
}

func NewVRFFulfiller(base *Base, sk *ecdsa.PrivateKey) *VRFFulfiller {
	return &VRFFulfiller{base: base, sk: sk}
}

// Fulfill proves a VRF output over the epoch seed and feeds it to the
// policy. The proof is returned for off-band publication.
func (f *VRFFulfiller) Fulfill(epoch uint64) (proof []byte, err error) {
	beta, proof, err := ecvrf.Secp256k1Sha256Tai.Prove(f.sk, epochSeed(epoch))
	if err != nil {
		return nil, errors.Wrap(err, "vrf prove")
	}
	if err := f.base.Fulfill(new(big.Int).SetBytes(beta)); err != nil {
		return nil, err
	}
	return proof, nil
}

// VerifyFulfillment checks a published proof against the fulfiller's
// public key and returns the random value it commits to.
func VerifyFulfillment(pub *ecdsa.PublicKey, epoch uint64, proof []byte) (*big.Int, error) {
	beta, err := ecvrf.Secp256k1Sha256Tai.Verify(pub, epochSeed(epoch), proof)
	if err != nil {
		return nil, errors.Wrap(err, "vrf verify")
	}
	return new(big.Int).SetBytes(beta), nil
}

func epochSeed(epoch uint64) []byte {
	seed := make([]byte, 8)
	binary.BigEndian.PutUint64(seed, epoch)
	return seed
}
