// Package ledger reads the on-chain contract registry through simulate-only
// RPC calls. The reader account exists because simulation needs a source
// account; it never signs and nothing is ever broadcast.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/go-resty/resty/v2"
	"github.com/lumapay/onboard/core"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

type Config struct {
	RPCURL        string `valid:"url,required"`
	ReaderAccount string `valid:"required"`
}

func New(client *resty.Client, cfg Config) core.LedgerReader {
	if _, err := govalidator.ValidateStruct(cfg); err != nil {
		panic(err)
	}

	return &service{
		client: client,
		cfg:    cfg,
	}
}

type service struct {
	client *resty.Client
	cfg    Config
}

func (s *service) Contracts(ctx context.Context, registryID string) (map[string]string, error) {
	value, err := s.readContract(ctx, registryID, "contracts")
	if err != nil {
		return nil, err
	}

	entries, ok := value.([]any)
	if !ok {
		return nil, &core.ContractReadError{Method: "contracts", Err: fmt.Errorf("unexpected return shape %T", value)}
	}

	contracts := make(map[string]string, len(entries))
	for _, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		name, _ := fields["name"].(string)
		address, _ := fields["address"].(string)
		if name != "" {
			contracts[name] = address
		}
	}

	return contracts, nil
}

func (s *service) FundsOracle(ctx context.Context, registryID string) (string, error) {
	value, err := s.readContract(ctx, registryID, "oracle_funds")
	if err != nil {
		return "", err
	}

	address, ok := value.(string)
	if !ok {
		return "", &core.ContractReadError{Method: "oracle_funds", Err: fmt.Errorf("unexpected return shape %T", value)}
	}

	return address, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (s *service) call(ctx context.Context, method string, params, result any) error {
	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}).
		SetResult(&envelope).
		Post(s.cfg.RPCURL)

	if err != nil {
		return err
	}

	if resp.IsError() {
		return fmt.Errorf("rpc status %d: %s", resp.StatusCode(), resp.Body())
	}

	if envelope.Error != nil {
		return envelope.Error
	}

	if result != nil {
		return json.Unmarshal(envelope.Result, result)
	}

	return nil
}

func (s *service) readContract(ctx context.Context, contractID, method string) (any, error) {
	value, err := s.read(ctx, contractID, method)
	if err != nil {
		return nil, &core.ContractReadError{Method: method, Err: err}
	}

	return value, nil
}

// read simulates an argument-less invocation and decodes the return value.
// The envelope is never signed, so no network passphrase is needed.
func (s *service) read(ctx context.Context, contractID, method string) (any, error) {
	envelope, err := s.buildEnvelope(contractID, method)
	if err != nil {
		return nil, err
	}

	var sim struct {
		Error   string `json:"error"`
		Results []struct {
			XDR string `json:"xdr"`
		} `json:"results"`
	}

	if err := s.call(ctx, "simulateTransaction", map[string]string{"transaction": envelope}, &sim); err != nil {
		return nil, err
	}

	if sim.Error != "" {
		return nil, fmt.Errorf("simulation failed: %s", sim.Error)
	}

	if len(sim.Results) == 0 || sim.Results[0].XDR == "" {
		return nil, fmt.Errorf("simulation returned no value")
	}

	var retval xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(sim.Results[0].XDR, &retval); err != nil {
		return nil, fmt.Errorf("decode return value: %w", err)
	}

	return scToNative(retval)
}

func (s *service) buildEnvelope(contractID, method string) (string, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, contractID)
	if err != nil {
		return "", fmt.Errorf("decode contract id: %w", err)
	}

	var contractHash xdr.Hash
	copy(contractHash[:], raw)

	op := &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: xdr.ScAddress{
					Type:       xdr.ScAddressTypeScAddressTypeContract,
					ContractId: &contractHash,
				},
				FunctionName: xdr.ScSymbol(method),
			},
		},
		SourceAccount: s.cfg.ReaderAccount,
	}

	account := txnbuild.SimpleAccount{AccountID: s.cfg.ReaderAccount, Sequence: 0}
	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &account,
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              txnbuild.MinBaseFee,
		Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(30)},
	})

	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	return tx.Base64()
}
