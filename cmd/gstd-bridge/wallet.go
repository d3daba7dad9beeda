package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gstdnetwork/go-compute-bridge/util"
	"github.com/gstdnetwork/go-compute-bridge/wallet"
	"github.com/urfave/cli/v2"
)

var walletCmd = &cli.Command{
	Name:  "wallet",
	Usage: "Manage wallets",
	Subcommands: []*cli.Command{
		walletNew,
		walletList,
		walletExport,
		walletImport,
		walletDelete,
		walletSign,
		walletVerify,
	},
}

var walletNew = &cli.Command{
	Name:  "new",
	Usage: "Generate a new key",
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()
		localWallet, err := wallet.SetupWallet(wallet.WalletRepo)
		if err != nil {
			return err
		}
		addr, err := localWallet.WalletNew(ctx)
		if err != nil {
			return err
		}
		fmt.Println(addr)

		return nil
	},
}

var walletList = &cli.Command{
	Name:  "list",
	Usage: "List wallet addresses",
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()

		localWallet, err := wallet.SetupWallet(wallet.WalletRepo)
		if err != nil {
			return err
		}

		addrs, err := localWallet.WalletList(ctx)
		if err != nil {
			return err
		}

		var data [][]string
		for _, addr := range addrs {
			data = append(data, []string{addr, wallet.ClientIdForAddress(addr)})
		}

		header := []string{"ADDRESS", "CLIENT ID"}
		NewVisualTable(header, data, nil).Generate()
		return nil
	},
}

var walletExport = &cli.Command{
	Name:      "export",
	Usage:     "export keys",
	ArgsUsage: "[address]",
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()
		localWallet, err := wallet.SetupWallet(wallet.WalletRepo)
		if err != nil {
			return err
		}
		if !cctx.Args().Present() {
			err := fmt.Errorf("must specify key to export")
			return err
		}

		addr := cctx.Args().First()

		ki, err := localWallet.WalletExport(ctx, addr)
		if err != nil {
			return err
		}

		fmt.Println(ki.PrivateKey)
		return nil
	},
}

var walletImport = &cli.Command{
	Name:      "import",
	Usage:     "import keys",
	ArgsUsage: "[<path> (optional, will read from stdin if omitted)]",
	Flags:     []cli.Flag{},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()
		localWallet, err := wallet.SetupWallet(wallet.WalletRepo)
		if err != nil {
			return err
		}

		var inpdata []byte
		if !cctx.Args().Present() || cctx.Args().First() == "-" {
			reader := bufio.NewReader(os.Stdin)
			fmt.Print("Enter private key: ")
			indata, err := reader.ReadBytes('\n')
			if err != nil {
				return err
			}
			inpdata = indata

		} else {
			fdata, err := os.ReadFile(cctx.Args().First())
			if err != nil {
				return err
			}
			inpdata = fdata
		}

		var ki wallet.KeyInfo
		ki.PrivateKey = strings.TrimSuffix(string(inpdata), "\n")

		addr, err := localWallet.WalletImport(ctx, &ki)
		if err != nil {
			return err
		}

		fmt.Printf("imported key %s successfully!\n", addr)
		return nil
	},
}

var walletDelete = &cli.Command{
	Name:      "delete",
	Usage:     "Soft delete an address from the wallet",
	ArgsUsage: "[address]",
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()
		localWallet, err := wallet.SetupWallet(wallet.WalletRepo)
		if err != nil {
			return err
		}
		if !cctx.Args().Present() {
			return fmt.Errorf("must specify address to delete")
		}

		addr := cctx.Args().First()
		if err := localWallet.WalletDelete(ctx, addr); err != nil {
			return err
		}

		fmt.Println("deleted ", addr)
		return nil
	},
}

var walletSign = &cli.Command{
	Name:      "sign",
	Usage:     "Sign a message with the given address",
	ArgsUsage: "[signing address] [hex message]",
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()
		if cctx.NArg() != 2 {
			return fmt.Errorf("need two params: signing address and hex message")
		}

		addr := cctx.Args().First()
		msg, err := hexutil.Decode(cctx.Args().Get(1))
		if err != nil {
			return fmt.Errorf("failed to parse hex message: %w", err)
		}

		localWallet, err := wallet.SetupWallet(wallet.WalletRepo)
		if err != nil {
			return err
		}

		sig, err := localWallet.WalletSign(ctx, addr, msg)
		if err != nil {
			return err
		}

		fmt.Println(sig)
		return nil
	},
}

var walletVerify = &cli.Command{
	Name:      "verify",
	Usage:     "Verify a signature made with the given address",
	ArgsUsage: "[signing address] [hex message] [hex signature]",
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext()
		if cctx.NArg() != 3 {
			return fmt.Errorf("need three params: signing address, hex message and hex signature")
		}

		addr := cctx.Args().First()
		msg, err := hexutil.Decode(cctx.Args().Get(1))
		if err != nil {
			return fmt.Errorf("failed to parse hex message: %w", err)
		}
		sigData, err := hexutil.Decode(cctx.Args().Get(2))
		if err != nil {
			return fmt.Errorf("failed to parse hex signature: %w", err)
		}

		localWallet, err := wallet.SetupWallet(wallet.WalletRepo)
		if err != nil {
			return err
		}

		ok, err := localWallet.WalletVerify(ctx, addr, &wallet.Signature{Data: sigData}, msg)
		if err != nil {
			return err
		}

		fmt.Println(ok)
		return nil
	},
}
