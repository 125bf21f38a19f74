package main

import (
	"context"
	"fmt"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/blockberries/quadgov/app"
	"github.com/blockberries/quadgov/config"
	"github.com/blockberries/quadgov/governance"
	govgrpc "github.com/blockberries/quadgov/grpc"
	"github.com/blockberries/quadgov/types"
)

const requestTimeout = 10 * time.Second

// client bundles a read-only connection with the output renderer.
type client struct {
	reader *govgrpc.Reader
	render *Renderer
}

// addClientFlags registers the flags shared by query and simulate.
func addClientFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("grpc-addr", config.DefaultGRPCAddr, "Address of a running quadgovd")
	cmd.PersistentFlags().Bool("json", false, "Print results as JSON")
}

// withClient dials the configured node and runs fn with a request
// deadline.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	reader, err := govgrpc.DialReader(cfg.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer reader.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	return fn(ctx, &client{reader: reader, render: NewRenderer(cmd.OutOrStdout(), asJSON)})
}

// query runs a state query, failing on a non-zero result code.
func (c *client) query(ctx context.Context, path types.QueryPath, args any) (types.StateQueryResult, error) {
	req := types.StateQuery{Path: path}
	if args != nil {
		data, err := cramberry.Marshal(args)
		if err != nil {
			return types.StateQueryResult{}, fmt.Errorf("encode %s request: %w", path, err)
		}
		req.Data = data
	}
	res, err := c.reader.Query(ctx, req)
	if err != nil {
		return types.StateQueryResult{}, fmt.Errorf("query %s: %w", path, err)
	}
	if res.Code != 0 {
		return types.StateQueryResult{}, fmt.Errorf("query %s: %s (code %d)", path, res.Info, res.Code)
	}
	return res, nil
}

// decode reads a query value. ok is false for an absent record.
func decode[T any](res types.StateQueryResult) (v T, ok bool, err error) {
	if !res.Found() {
		return v, false, nil
	}
	if err := cramberry.Unmarshal(res.Value, &v); err != nil {
		return v, false, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, true, nil
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read committed governance state from a running node",
	}
	addClientFlags(cmd)

	cmd.AddCommand(
		newQueryProposalCmd(),
		newQueryProposalsCmd(),
		newQueryVoteCmd(),
		newQueryVotersCmd(),
		newQueryConfigCmd(),
	)
	return cmd
}

func newQueryProposalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposal <id>",
		Short: "Show a proposal and its phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint("proposal id", args[0])
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *client) error {
				res, err := c.query(ctx, app.PathProposal, types.ProposalQuery{ProposalID: id})
				if err != nil {
					return err
				}
				p, ok, err := decode[types.Proposal](res)
				if err != nil {
					return err
				}
				if !ok {
					return c.render.NotFound(fmt.Sprintf("proposal %d", id))
				}

				res, err = c.query(ctx, app.PathPhase, types.PhaseQuery{ProposalID: id})
				if err != nil {
					return err
				}
				phase, _, err := decode[types.Uint64Value](res)
				if err != nil {
					return err
				}
				return c.render.Proposal(id, p, governance.Phase(phase.Value))
			})
		},
	}
}

func newQueryProposalsCmd() *cobra.Command {
	var (
		startAfter uint64
		limit      uint32
	)

	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "List proposals in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := types.ListProposalsQuery{Limit: limit}
			if cmd.Flags().Changed("start-after") {
				q = types.ProposalsAfter(startAfter, limit)
			}
			return withClient(cmd, func(ctx context.Context, c *client) error {
				res, err := c.query(ctx, app.PathProposals, q)
				if err != nil {
					return err
				}
				list, _, err := decode[types.ProposalList](res)
				if err != nil {
					return err
				}
				return c.render.Proposals(list)
			})
		},
	}

	cmd.Flags().Uint64Var(&startAfter, "start-after", 0, "List proposals with ids greater than this")
	cmd.Flags().Uint32Var(&limit, "limit", 0, "Maximum number of proposals (0 uses the server default)")

	return cmd
}

func newQueryVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <proposal-id> <voter>",
		Short: "Show one voter's ballot on a proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint("proposal id", args[0])
			if err != nil {
				return err
			}
			voter := types.Address(args[1])
			return withClient(cmd, func(ctx context.Context, c *client) error {
				res, err := c.query(ctx, app.PathVote, types.VoteQuery{ProposalID: id, Voter: voter})
				if err != nil {
					return err
				}
				v, ok, err := decode[types.Vote](res)
				if err != nil {
					return err
				}
				if !ok {
					return c.render.NotFound(fmt.Sprintf("vote by %s on proposal %d", voter, id))
				}
				return c.render.Vote(id, voter, v)
			})
		},
	}
}

func newQueryVotersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "voters <proposal-id>",
		Short: "List a proposal's voters in vote order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint("proposal id", args[0])
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *client) error {
				res, err := c.query(ctx, app.PathVoters, types.ProposalQuery{ProposalID: id})
				if err != nil {
					return err
				}
				list, _, err := decode[types.VoterList](res)
				if err != nil {
					return err
				}
				return c.render.Voters(list)
			})
		},
	}
}

func newQueryConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show governance parameters and authorities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client) error {
				res, err := c.query(ctx, app.PathConfig, nil)
				if err != nil {
					return err
				}
				cfg, ok, err := decode[types.Config](res)
				if err != nil {
					return err
				}
				if !ok {
					return c.render.NotFound("config")
				}
				return c.render.Config(cfg)
			})
		},
	}
}
