package models

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ScheduledTransfer is an owner-authorized ERC20 transfer observed from a
// TransferScheduled log. It is immutable once constructed; the registry
// contract remains authoritative on whether it exists and whether it has
// already been executed.
type ScheduledTransfer struct {
	Owner       common.Address
	Nonce       *big.Int // uint96, unique per owner
	Token       common.Address
	To          common.Address
	Amount      *big.Int
	Spender     common.Address // the registry contract itself
	NotBefore   uint64         // inclusive window start, unix seconds
	NotAfter    uint64         // inclusive window end, unix seconds
	MaxBaseFee  *big.Int       // highest base fee the owner tolerates, wei
	Signature   []byte         // owner's EIP-712 signature, forwarded verbatim
	BlockNumber uint64         // block the scheduling log was emitted in
}

// Key returns the (owner, nonce) identity used for deduplication.
func (t ScheduledTransfer) Key() string {
	return fmt.Sprintf("%s:%s", t.Owner.Hex(), t.Nonce.String())
}
