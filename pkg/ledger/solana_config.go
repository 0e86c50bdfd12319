package ledger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type SolanaConfigJson struct {
	RpcUrl           string `json:"rpc_url"`
	ProgramId        string `json:"program_id"`
	PayerKeypairPath string `json:"payer_keypair_path"`
	Commitment       string `json:"commitment"`
}

type SolanaConfig struct {
	RpcUrl     string
	ProgramID  solana.PublicKey
	Payer      solana.PrivateKey
	Commitment rpc.CommitmentType
}

// ConvertToDomain resolves the program id and reads the payer keypair.
// PROGRAM_ID and PAYER_KEYPAIR_PATH override the json values.
func (scj SolanaConfigJson) ConvertToDomain() (SolanaConfig, error) {
	programIDStr := scj.ProgramId
	if env := os.Getenv("PROGRAM_ID"); env != "" {
		programIDStr = env
	}
	if programIDStr == "" {
		return SolanaConfig{}, fmt.Errorf("program id is not set (program_id or PROGRAM_ID)")
	}
	programID, err := solana.PublicKeyFromBase58(programIDStr)
	if err != nil {
		return SolanaConfig{}, fmt.Errorf("invalid program id %q: %w", programIDStr, err)
	}

	keypairPath := scj.PayerKeypairPath
	if env := os.Getenv("PAYER_KEYPAIR_PATH"); env != "" {
		keypairPath = env
	}
	if keypairPath == "" {
		homeDir, _ := os.UserHomeDir()
		keypairPath = filepath.Join(homeDir, ".config", "solana", "id.json")
	}
	payer, err := solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
	if err != nil {
		return SolanaConfig{}, fmt.Errorf("reading payer keypair from %s failed: %w", keypairPath, err)
	}

	rpcUrl := scj.RpcUrl
	if rpcUrl == "" {
		rpcUrl = rpc.LocalNet_RPC
	}
	commitment := rpc.CommitmentType(scj.Commitment)
	if commitment == "" {
		commitment = rpc.CommitmentFinalized
	}

	return SolanaConfig{
		RpcUrl:     rpcUrl,
		ProgramID:  programID,
		Payer:      payer,
		Commitment: commitment,
	}, nil
}
