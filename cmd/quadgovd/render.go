package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/blockberries/quadgov/governance"
	"github.com/blockberries/quadgov/types"
)

// Renderer prints query and simulation results as tables, or as
// indented JSON when json is set.
type Renderer struct {
	out  io.Writer
	json bool
}

func NewRenderer(out io.Writer, asJSON bool) *Renderer {
	return &Renderer{out: out, json: asJSON}
}

func (r *Renderer) newTable(header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Box.PaddingRight = "   "
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NotFound reports an absent record.
func (r *Renderer) NotFound(what string) error {
	if r.json {
		return r.writeJSON(nil)
	}
	_, err := fmt.Fprintf(r.out, "No %s found\n", what)
	return err
}

// Proposal renders one proposal with its phase at the committed height.
func (r *Renderer) Proposal(id uint64, p types.Proposal, phase governance.Phase) error {
	if r.json {
		return r.writeJSON(struct {
			ID uint64 `json:"id"`
			types.Proposal
			Phase string `json:"phase"`
		}{id, p, phase.String()})
	}
	t := r.newTable()
	t.AppendRows([]table.Row{
		{"ID", id},
		{"Proposer", p.Proposer},
		{"Charity", p.CharityID},
		{"Amount", p.Amount},
		{"Window", fmt.Sprintf("%d..%d", p.StartTime, p.EndTime)},
		{"Total votes", p.TotalVotes},
		{"Phase", phase},
	})
	t.Render()
	return nil
}

// Proposals renders a proposal listing.
func (r *Renderer) Proposals(list types.ProposalList) error {
	if r.json {
		return r.writeJSON(list.Proposals)
	}
	if len(list.Proposals) == 0 {
		return r.NotFound("proposals")
	}
	t := r.newTable("ID", "Proposer", "Charity", "Amount", "Window", "Votes", "Status")
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	for _, e := range list.Proposals {
		t.AppendRow(table.Row{
			e.ID,
			e.Proposal.Proposer,
			e.Proposal.CharityID,
			e.Proposal.Amount,
			fmt.Sprintf("%d..%d", e.Proposal.StartTime, e.Proposal.EndTime),
			e.Proposal.TotalVotes,
			status(e),
		})
	}
	t.Render()
	return nil
}

func status(e types.ProposalEntry) string {
	switch {
	case e.Proposal.Executed:
		return "executed"
	case e.Active:
		return "active"
	default:
		return "inactive"
	}
}

// Vote renders one ballot.
func (r *Renderer) Vote(proposalID uint64, voter types.Address, v types.Vote) error {
	if r.json {
		return r.writeJSON(v)
	}
	t := r.newTable()
	t.AppendRows([]table.Row{
		{"Proposal", proposalID},
		{"Voter", voter},
		{"Amount", v.VoteAmount},
		{"Weight", v.QuadraticWeight},
	})
	t.Render()
	return nil
}

// Voters renders a proposal's voters in vote order.
func (r *Renderer) Voters(list types.VoterList) error {
	if r.json {
		return r.writeJSON(list.Voters)
	}
	if len(list.Voters) == 0 {
		return r.NotFound("voters")
	}
	t := r.newTable("#", "Voter")
	for i, v := range list.Voters {
		t.AppendRow(table.Row{i + 1, v})
	}
	t.Render()
	return nil
}

// Config renders the governance parameters.
func (r *Renderer) Config(c types.Config) error {
	if r.json {
		return r.writeJSON(c)
	}
	t := r.newTable()
	t.AppendRows([]table.Row{
		{"Next proposal id", c.NextProposalID},
		{"Max proposals", c.MaxProposals},
		{"Voting threshold", c.VotingThreshold},
		{"Min vote amount", c.MinVoteAmount},
		{"Staking authority", c.StakingAuthority},
		{"Governing authority", c.GoverningAuthority},
		{"Charity registry authority", c.CharityRegistryAuthority},
	})
	t.Render()
	return nil
}

// Outcome renders a simulated call result and its events.
func (r *Renderer) Outcome(o types.TxOutcome) error {
	code := governance.Code(o.Code)
	if r.json {
		return r.writeJSON(struct {
			Code   uint32        `json:"code"`
			Result string        `json:"result"`
			Info   string        `json:"info,omitempty"`
			Events []types.Event `json:"events,omitempty"`
		}{o.Code, code.String(), o.Info, o.Events})
	}

	result := "applied"
	if !o.OK() {
		result = fmt.Sprintf("rejected: %s (%d)", code, o.Code)
	}
	fmt.Fprintf(r.out, "Result: %s\n", result)
	if o.Info != "" {
		fmt.Fprintf(r.out, "Info:   %s\n", o.Info)
	}
	if len(o.Events) == 0 {
		return nil
	}

	t := r.newTable("Event", "Attribute", "Value")
	for _, ev := range o.Events {
		if len(ev.Attributes) == 0 {
			t.AppendRow(table.Row{ev.Kind, "", ""})
		}
		for i, a := range ev.Attributes {
			kind := ""
			if i == 0 {
				kind = ev.Kind
			}
			t.AppendRow(table.Row{kind, a.Key, a.Value})
		}
	}
	t.Render()
	return nil
}

func parseUint(name, s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return v, nil
}
