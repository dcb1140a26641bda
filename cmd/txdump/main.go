// Copyright 2025 The voltaire Authors
// This file is part of voltaire.
//
// voltaire is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// voltaire is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with voltaire. If not, see <http://www.gnu.org/licenses/>.

// txdump decodes a raw Ethereum transaction and prints its contents.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/voltaire-eth/voltaire/common/hexutil"
	"github.com/voltaire-eth/voltaire/core/types"
	"github.com/urfave/cli/v2"
)

var (
	senderFlag = &cli.BoolFlag{
		Name:  "sender",
		Usage: "Recover and print the sender address",
		Value: true,
	}
	baseFeeFlag = &cli.Int64Flag{
		Name:  "basefee",
		Usage: "Base fee (wei) used to report the effective gas price",
		Value: -1,
	}
)

var app = &cli.App{
	Name:      "txdump",
	Usage:     "decode a raw Ethereum transaction",
	ArgsUsage: "<hex-encoded transaction>",
	Flags:     []cli.Flag{senderFlag, baseFeeFlag},
	Action:    dump,
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dump(ctx *cli.Context) error {
	input := ctx.Args().First()
	if input == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		input = strings.TrimSpace(string(raw))
	}
	data, err := hexutil.Decode(addHexPrefix(input))
	if err != nil {
		return fmt.Errorf("invalid transaction hex: %w", err)
	}

	var tx types.Transaction
	if err := tx.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	encoded, err := json.Marshal(&tx)
	if err != nil {
		return err
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(encoded, &fields); err != nil {
		return err
	}
	fields["signingHash"] = tx.SigningHash()

	if ctx.Bool(senderFlag.Name) && tx.IsSigned() {
		from, err := types.Sender(&tx)
		if err != nil {
			return fmt.Errorf("sender recovery failed: %w", err)
		}
		fields["sender"] = from
	}
	if basefee := ctx.Int64(baseFeeFlag.Name); basefee >= 0 {
		fields["effectiveGasPrice"] = (*hexutil.Big)(tx.EffectiveGasPrice(big.NewInt(basefee)))
	}
	if tx.Type() == types.BlobTxType {
		fields["blobGas"] = hexutil.Uint64(tx.BlobGas())
	}

	enc, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

func addHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
