package governance

import "github.com/blockberries/quadgov/types"

// IsGoverningAuthority reports whether caller may change parameters.
func (s *State) IsGoverningAuthority(caller types.Address) bool {
	return caller == s.config.GoverningAuthority
}

func (s *State) authorize(op string, caller types.Address) error {
	if !s.IsGoverningAuthority(caller) {
		return reject(CodeNotAuthorized, op, "%s is not the governing authority", caller)
	}
	return nil
}

// SetVotingThreshold replaces the execution threshold. v must be in (0,100].
func (s *State) SetVotingThreshold(env Env, v uint64) error {
	const op = "set voting threshold"
	if err := s.authorize(op, env.Caller); err != nil {
		return err
	}
	if v == 0 || v > MaxVotingThreshold {
		return reject(CodeInvalidThreshold, op, "%d outside (0,%d]", v, MaxVotingThreshold)
	}
	s.config.VotingThreshold = v
	return nil
}

// SetMinVoteAmount replaces the minimum stake per vote. v must be positive.
func (s *State) SetMinVoteAmount(env Env, v uint64) error {
	const op = "set min vote amount"
	if err := s.authorize(op, env.Caller); err != nil {
		return err
	}
	if v == 0 {
		return reject(CodeInvalidVoteAmount, op, "minimum must be positive")
	}
	s.config.MinVoteAmount = v
	return nil
}

// SetStakingAuthority replaces the staking authority identity.
func (s *State) SetStakingAuthority(env Env, addr types.Address) error {
	if err := s.authorize("set staking authority", env.Caller); err != nil {
		return err
	}
	s.config.StakingAuthority = addr
	return nil
}

// SetGoverningAuthority hands the governing role to addr. The current
// authority authorizes the change; afterwards only addr may call the
// setters.
func (s *State) SetGoverningAuthority(env Env, addr types.Address) error {
	if err := s.authorize("set governing authority", env.Caller); err != nil {
		return err
	}
	s.config.GoverningAuthority = addr
	return nil
}

// SetCharityRegistryAuthority replaces the charity registry identity.
func (s *State) SetCharityRegistryAuthority(env Env, addr types.Address) error {
	if err := s.authorize("set charity registry authority", env.Caller); err != nil {
		return err
	}
	s.config.CharityRegistryAuthority = addr
	return nil
}
