package contracts

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Transfer status values stored by the registry contract.
const (
	TransferStatusPending  uint8 = 0
	TransferStatusExecuted uint8 = 1
)

// RegistryTransferDetails is the tuple passed to executeScheduledTransfer.
// Field order must match the contract's struct definition.
type RegistryTransferDetails struct {
	Owner         common.Address
	Nonce         *big.Int
	Token         common.Address
	To            common.Address
	Amount        *big.Int
	Spender       common.Address
	NotBeforeDate *big.Int
	NotAfterDate  *big.Int
	MaxBaseFee    *big.Int
}

// RegistryABI is the ABI of the scheduled transfer registry contract
const RegistryABI = `[
	{
		"inputs": [
			{
				"internalType": "address",
				"name": "owner",
				"type": "address"
			},
			{
				"internalType": "uint96",
				"name": "nonce",
				"type": "uint96"
			}
		],
		"name": "transfers",
		"outputs": [
			{
				"internalType": "uint256",
				"name": "blockNumber",
				"type": "uint256"
			},
			{
				"internalType": "uint8",
				"name": "status",
				"type": "uint8"
			},
			{
				"internalType": "bool",
				"name": "exists",
				"type": "bool"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getRelayGasUsage",
		"outputs": [
			{
				"internalType": "uint32",
				"name": "",
				"type": "uint32"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{
				"components": [
					{
						"internalType": "address",
						"name": "owner",
						"type": "address"
					},
					{
						"internalType": "uint96",
						"name": "nonce",
						"type": "uint96"
					},
					{
						"internalType": "address",
						"name": "token",
						"type": "address"
					},
					{
						"internalType": "address",
						"name": "to",
						"type": "address"
					},
					{
						"internalType": "uint256",
						"name": "amount",
						"type": "uint256"
					},
					{
						"internalType": "address",
						"name": "spender",
						"type": "address"
					},
					{
						"internalType": "uint256",
						"name": "notBeforeDate",
						"type": "uint256"
					},
					{
						"internalType": "uint256",
						"name": "notAfterDate",
						"type": "uint256"
					},
					{
						"internalType": "uint256",
						"name": "maxBaseFee",
						"type": "uint256"
					}
				],
				"internalType": "struct IScheduler.TransferDetails",
				"name": "details",
				"type": "tuple"
			},
			{
				"internalType": "bytes",
				"name": "signature",
				"type": "bytes"
			}
		],
		"name": "executeScheduledTransfer",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{
				"indexed": true,
				"internalType": "address",
				"name": "owner",
				"type": "address"
			},
			{
				"indexed": true,
				"internalType": "uint96",
				"name": "nonce",
				"type": "uint96"
			},
			{
				"indexed": false,
				"internalType": "address",
				"name": "token",
				"type": "address"
			},
			{
				"indexed": false,
				"internalType": "address",
				"name": "to",
				"type": "address"
			},
			{
				"indexed": false,
				"internalType": "uint256",
				"name": "amount",
				"type": "uint256"
			},
			{
				"indexed": false,
				"internalType": "uint256",
				"name": "notBeforeDate",
				"type": "uint256"
			},
			{
				"indexed": false,
				"internalType": "uint256",
				"name": "notAfterDate",
				"type": "uint256"
			},
			{
				"indexed": false,
				"internalType": "uint256",
				"name": "maxBaseFee",
				"type": "uint256"
			},
			{
				"indexed": false,
				"internalType": "bytes",
				"name": "signature",
				"type": "bytes"
			}
		],
		"name": "TransferScheduled",
		"type": "event"
	}
]`

// Registry is an auto generated Go binding around an Ethereum contract.
type Registry struct {
	RegistryCaller     // Read-only binding to the contract
	RegistryTransactor // Write-only binding to the contract
	RegistryFilterer   // Log filterer for contract events
}

// RegistryCaller is an auto generated read-only Go binding around an Ethereum contract.
type RegistryCaller struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// RegistryTransactor is an auto generated write-only Go binding around an Ethereum contract.
type RegistryTransactor struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// RegistryFilterer is an auto generated log filtering Go binding around an Ethereum contract events.
type RegistryFilterer struct {
	contract *bind.BoundContract // Generic contract wrapper for the low level calls
}

// NewRegistry creates a new instance of Registry, bound to a specific deployed contract.
func NewRegistry(address common.Address, backend bind.ContractBackend) (*Registry, error) {
	contract, err := bindRegistry(address, backend, backend, backend)
	if err != nil {
		return nil, err
	}
	return &Registry{
		RegistryCaller:     RegistryCaller{contract: contract},
		RegistryTransactor: RegistryTransactor{contract: contract},
		RegistryFilterer:   RegistryFilterer{contract: contract},
	}, nil
}

// NewRegistryCaller creates a new read-only instance of Registry, bound to a specific deployed contract.
func NewRegistryCaller(address common.Address, caller bind.ContractCaller) (*RegistryCaller, error) {
	contract, err := bindRegistry(address, caller, nil, nil)
	if err != nil {
		return nil, err
	}
	return &RegistryCaller{contract: contract}, nil
}

// NewRegistryFilterer creates a new log filterer instance of Registry, bound to a specific deployed contract.
func NewRegistryFilterer(address common.Address, filterer bind.ContractFilterer) (*RegistryFilterer, error) {
	contract, err := bindRegistry(address, nil, nil, filterer)
	if err != nil {
		return nil, err
	}
	return &RegistryFilterer{contract: contract}, nil
}

// bindRegistry binds a generic wrapper to an already deployed contract.
func bindRegistry(address common.Address, caller bind.ContractCaller, transactor bind.ContractTransactor, filterer bind.ContractFilterer) (*bind.BoundContract, error) {
	parsed, err := abi.JSON(strings.NewReader(RegistryABI))
	if err != nil {
		return nil, err
	}
	return bind.NewBoundContract(address, parsed, caller, transactor, filterer), nil
}

// Transfers is a free data retrieval call binding the contract method 0x3c64f04b.
//
// Solidity: function transfers(address owner, uint96 nonce) view returns(uint256 blockNumber, uint8 status, bool exists)
func (_Registry *RegistryCaller) Transfers(opts *bind.CallOpts, owner common.Address, nonce *big.Int) (struct {
	BlockNumber *big.Int
	Status      uint8
	Exists      bool
}, error) {
	var out []interface{}
	err := _Registry.contract.Call(opts, &out, "transfers", owner, nonce)

	outstruct := new(struct {
		BlockNumber *big.Int
		Status      uint8
		Exists      bool
	})
	if err != nil {
		return *outstruct, err
	}

	outstruct.BlockNumber = *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	outstruct.Status = *abi.ConvertType(out[1], new(uint8)).(*uint8)
	outstruct.Exists = *abi.ConvertType(out[2], new(bool)).(*bool)

	return *outstruct, err
}

// GetRelayGasUsage is a free data retrieval call binding the contract method 0x8f7e1263.
//
// Solidity: function getRelayGasUsage() view returns(uint32)
func (_Registry *RegistryCaller) GetRelayGasUsage(opts *bind.CallOpts) (uint32, error) {
	var out []interface{}
	err := _Registry.contract.Call(opts, &out, "getRelayGasUsage")

	if err != nil {
		return *new(uint32), err
	}

	out0 := *abi.ConvertType(out[0], new(uint32)).(*uint32)

	return out0, err
}

// ExecuteScheduledTransfer is a paid mutator transaction binding the contract method 0x4a8c1fb4.
//
// Solidity: function executeScheduledTransfer((address,uint96,address,address,uint256,address,uint256,uint256,uint256) details, bytes signature) returns()
func (_Registry *RegistryTransactor) ExecuteScheduledTransfer(opts *bind.TransactOpts, details RegistryTransferDetails, signature []byte) (*types.Transaction, error) {
	return _Registry.contract.Transact(opts, "executeScheduledTransfer", details, signature)
}

// RegistryTransferScheduledIterator is returned from FilterTransferScheduled and is used to iterate over the raw logs and unpacked data for TransferScheduled events raised by the Registry contract.
type RegistryTransferScheduledIterator struct {
	Event *RegistryTransferScheduled // Event containing the contract specifics and raw log

	contract *bind.BoundContract // Generic contract to use for unpacking event data
	event    string              // Event name to use for unpacking event data

	logs chan types.Log        // Log channel receiving the found contract events
	sub  ethereum.Subscription // Subscription for errors, completion and termination
	done bool                  // Whether the subscription completed delivering logs
	fail error                 // Occurred error to stop iteration
}

// Next advances the iterator to the subsequent event, returning whether there
// are any more events found. In case of a retrieval or parsing error, false is
// returned and Error() can be queried for the exact failure.
func (it *RegistryTransferScheduledIterator) Next() bool {
	// If the iterator failed, stop iterating
	if it.fail != nil {
		return false
	}
	// If the iterator completed, deliver directly whatever's available
	if it.done {
		select {
		case log := <-it.logs:
			it.Event = new(RegistryTransferScheduled)
			if err := it.contract.UnpackLog(it.Event, it.event, log); err != nil {
				it.fail = err
				return false
			}
			it.Event.Raw = log
			return true

		default:
			return false
		}
	}
	// Iterator still in progress, wait for either a data or an error event
	select {
	case log := <-it.logs:
		it.Event = new(RegistryTransferScheduled)
		if err := it.contract.UnpackLog(it.Event, it.event, log); err != nil {
			it.fail = err
			return false
		}
		it.Event.Raw = log
		return true

	case err := <-it.sub.Err():
		it.done = true
		it.fail = err
		return it.Next()
	}
}

// Error returns any retrieval or parsing error occurred during filtering.
func (it *RegistryTransferScheduledIterator) Error() error {
	return it.fail
}

// Close terminates the iteration process, releasing any pending underlying
// resources.
func (it *RegistryTransferScheduledIterator) Close() error {
	it.sub.Unsubscribe()
	return nil
}

// RegistryTransferScheduled represents a TransferScheduled event raised by the Registry contract.
type RegistryTransferScheduled struct {
	Owner         common.Address
	Nonce         *big.Int
	Token         common.Address
	To            common.Address
	Amount        *big.Int
	NotBeforeDate *big.Int
	NotAfterDate  *big.Int
	MaxBaseFee    *big.Int
	Signature     []byte
	Raw           types.Log // Blockchain specific contextual infos
}

// FilterTransferScheduled is a free log retrieval operation binding the contract event 0x7d9c2a31.
//
// Solidity: event TransferScheduled(address indexed owner, uint96 indexed nonce, address token, address to, uint256 amount, uint256 notBeforeDate, uint256 notAfterDate, uint256 maxBaseFee, bytes signature)
func (_Registry *RegistryFilterer) FilterTransferScheduled(opts *bind.FilterOpts, owner []common.Address, nonce []*big.Int) (*RegistryTransferScheduledIterator, error) {
	var ownerRule []interface{}
	for _, ownerItem := range owner {
		ownerRule = append(ownerRule, ownerItem)
	}
	var nonceRule []interface{}
	for _, nonceItem := range nonce {
		nonceRule = append(nonceRule, nonceItem)
	}

	logs, sub, err := _Registry.contract.FilterLogs(opts, "TransferScheduled", ownerRule, nonceRule)
	if err != nil {
		return nil, err
	}
	return &RegistryTransferScheduledIterator{contract: _Registry.contract, event: "TransferScheduled", logs: logs, sub: sub}, nil
}

// WatchTransferScheduled is a free log subscription operation binding the contract event 0x7d9c2a31.
//
// Solidity: event TransferScheduled(address indexed owner, uint96 indexed nonce, address token, address to, uint256 amount, uint256 notBeforeDate, uint256 notAfterDate, uint256 maxBaseFee, bytes signature)
func (_Registry *RegistryFilterer) WatchTransferScheduled(opts *bind.WatchOpts, sink chan<- *RegistryTransferScheduled, owner []common.Address, nonce []*big.Int) (event.Subscription, error) {
	var ownerRule []interface{}
	for _, ownerItem := range owner {
		ownerRule = append(ownerRule, ownerItem)
	}
	var nonceRule []interface{}
	for _, nonceItem := range nonce {
		nonceRule = append(nonceRule, nonceItem)
	}

	logs, sub, err := _Registry.contract.WatchLogs(opts, "TransferScheduled", ownerRule, nonceRule)
	if err != nil {
		return nil, err
	}
	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case log := <-logs:
				// New log arrived, parse the event and forward to the user
				event := new(RegistryTransferScheduled)
				if err := _Registry.contract.UnpackLog(event, "TransferScheduled", log); err != nil {
					return err
				}
				event.Raw = log

				select {
				case sink <- event:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

// ParseTransferScheduled is a log parse operation binding the contract event 0x7d9c2a31.
//
// Solidity: event TransferScheduled(address indexed owner, uint96 indexed nonce, address token, address to, uint256 amount, uint256 notBeforeDate, uint256 notAfterDate, uint256 maxBaseFee, bytes signature)
func (_Registry *RegistryFilterer) ParseTransferScheduled(log types.Log) (*RegistryTransferScheduled, error) {
	event := new(RegistryTransferScheduled)
	if err := _Registry.contract.UnpackLog(event, "TransferScheduled", log); err != nil {
		return nil, err
	}
	event.Raw = log
	return event, nil
}
