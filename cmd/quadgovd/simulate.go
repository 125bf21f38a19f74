package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockberries/quadgov/types"
)

var errNoCaller = errors.New("--caller is required")

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Dry-run a governance call against committed state",
		Long: `Dry-run a governance call against the node's committed state at the next
block height. Nothing is persisted.`,
	}
	addClientFlags(cmd)
	cmd.PersistentFlags().String("caller", "", "Identity submitting the call")

	cmd.AddCommand(
		simulateCall("create <charity-id> <amount> <duration>", "Create a proposal", 3,
			func(caller types.Address, args []string) (types.Call, error) {
				charity, err := parseUint("charity id", args[0])
				if err != nil {
					return types.Call{}, err
				}
				amount, err := parseUint("amount", args[1])
				if err != nil {
					return types.Call{}, err
				}
				duration, err := parseUint("duration", args[2])
				if err != nil {
					return types.Call{}, err
				}
				return types.CreateProposalCall(caller, charity, amount, duration), nil
			}),
		simulateCall("vote <proposal-id> <amount>", "Vote on a proposal", 2,
			func(caller types.Address, args []string) (types.Call, error) {
				id, err := parseUint("proposal id", args[0])
				if err != nil {
					return types.Call{}, err
				}
				amount, err := parseUint("amount", args[1])
				if err != nil {
					return types.Call{}, err
				}
				return types.VoteCall(caller, id, amount), nil
			}),
		simulateCall("execute <proposal-id>", "Execute a closed proposal", 1,
			func(caller types.Address, args []string) (types.Call, error) {
				id, err := parseUint("proposal id", args[0])
				if err != nil {
					return types.Call{}, err
				}
				return types.ExecuteProposalCall(caller, id), nil
			}),
		simulateCall("set-threshold <value>", "Change the voting threshold", 1,
			func(caller types.Address, args []string) (types.Call, error) {
				v, err := parseUint("threshold", args[0])
				if err != nil {
					return types.Call{}, err
				}
				return types.SetVotingThresholdCall(caller, v), nil
			}),
		simulateCall("set-min-vote <value>", "Change the minimum vote amount", 1,
			func(caller types.Address, args []string) (types.Call, error) {
				v, err := parseUint("min vote amount", args[0])
				if err != nil {
					return types.Call{}, err
				}
				return types.SetMinVoteAmountCall(caller, v), nil
			}),
		simulateCall("set-authority <staking|governing|charity-registry> <address>", "Hand over an authority role", 2,
			func(caller types.Address, args []string) (types.Call, error) {
				addr := types.Address(args[1])
				switch args[0] {
				case "staking":
					return types.SetStakingAuthorityCall(caller, addr), nil
				case "governing":
					return types.SetGoverningAuthorityCall(caller, addr), nil
				case "charity-registry":
					return types.SetCharityRegistryAuthorityCall(caller, addr), nil
				default:
					return types.Call{}, fmt.Errorf("unknown authority %q", args[0])
				}
			}),
	)
	return cmd
}

// simulateCall builds a subcommand that turns its arguments into a
// call and prints the simulated outcome.
func simulateCall(use, short string, nargs int, build func(types.Address, []string) (types.Call, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := cmd.Flags().GetString("caller")
			if err != nil {
				return err
			}
			if caller == "" {
				return errNoCaller
			}
			call, err := build(types.Address(caller), args)
			if err != nil {
				return err
			}
			tx, err := call.Encode()
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *client) error {
				out, err := c.reader.Simulate(ctx, tx)
				if err != nil {
					return fmt.Errorf("simulate: %w", err)
				}
				return c.render.Outcome(out)
			})
		},
	}
}
