package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"stakeledger/blockchain"
)

func newRootCmd() *cobra.Command {
	var nodeURL string

	rootCmd := &cobra.Command{
		Use:           "stakectl",
		Short:         "stakeledger node CLI",
		Long:          "A command-line tool for inspecting a stakeledger node and submitting transactions to it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&nodeURL, "node", "http://localhost:8080", "Base URL of the node API")

	client := func() *Client { return NewClient(nodeURL) }

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "chain",
			Short: "Print the full chain",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				chain, err := client().Chain()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), chain)
			},
		},
		&cobra.Command{
			Use:   "balance <id>",
			Short: "Show an identity's balance and stake",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				account, err := client().Account(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s balance=%v stake=%v\n", args[0], account["balance"], account["stake"])
				return nil
			},
		},
		&cobra.Command{
			Use:   "accounts",
			Short: "List every identity with a balance or a stake",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				accounts, err := client().Accounts()
				if err != nil {
					return err
				}
				for _, account := range accounts {
					fmt.Fprintf(cmd.OutOrStdout(), "%v balance=%v stake=%v\n", account["id"], account["balance"], account["stake"])
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "forger",
			Short: "Show the forger of the next block",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				next, err := client().NextForger()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "block %v: %v\n", next["index"], next["forger"])
				return nil
			},
		},
		newMempoolCmd(client),
		newSubmitCmd(client),
	)
	return rootCmd
}

func newMempoolCmd(client func() *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mempool",
		Short: "Query the current mempool contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := client().Mempool()
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			if output == "json" {
				return printJSON(cmd.OutOrStdout(), pool)
			}
			txs, _ := pool["transactions"].([]any)
			fmt.Fprintf(cmd.OutOrStdout(), "%d transactions in mempool:\n", len(txs))
			for i, raw := range txs {
				tx, _ := raw.(map[string]any)
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %v %v -> %v amount=%v\n", i+1, tx["type"], tx["senderKey"], tx["receiverKey"], tx["amount"])
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "plain", "Output format: plain|json")
	return cmd
}

func newSubmitCmd(client func() *Client) *cobra.Command {
	var (
		from   string
		to     string
		amount float64
		txType string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an unsigned transaction to the node's mempool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := blockchain.ParseTransactionType(txType)
			if err != nil {
				return err
			}
			if parsed == blockchain.Stake && to == "" {
				to = from
			}
			created, err := client().SubmitTransaction(map[string]any{
				"type":        string(parsed),
				"senderKey":   from,
				"receiverKey": to,
				"amount":      amount,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %v\n", created["id"])
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Sender identity")
	cmd.Flags().StringVar(&to, "to", "", "Receiver identity (defaults to sender for STAKE)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount to move")
	cmd.Flags().StringVar(&txType, "type", string(blockchain.Transfer), "TRANSFER, EXCHANGE or STAKE")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}
