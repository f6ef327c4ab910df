package wallet

// Wallet table management.
//
// Files:
//   wallet.go  - Wallet record, address validation and key recovery
//   csv.go     - Load/export of the name,address,private_key CSV table
//   manager.go - Manager composing the node and block-explorer clients
//
// Usage:
//   cfg, err := config.FromEnv()
//   manager, err := wallet.NewManager(cfg)       // from manager.go
//   balances, err := manager.WalletBalances(ctx) // one lookup per wallet
//   holdings, err := manager.FindTokens(ctx, contractAddress)
