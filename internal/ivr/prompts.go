package ivr

// Prerecorded prompt assets, relative to the configured audio base URL.
const (
	promptIntro           = "intro.wav"
	promptSelectLeg       = "selectleg.wav"
	promptSelectLegAlt    = "selectlegalt.wav"
	promptMainMenuIntro   = "mainmenu-intro.wav"
	promptMainMenu        = "mainmenu.wav"
	promptContributors    = "1.wav"
	promptContributorsOut = "1-out.wav"
	promptVotes           = "2.wav"
	promptVotesOut        = "2-out.wav"
	promptBioOut          = "3-out.wav"
	promptCommittees      = "4.wav"
	promptCommitteesOut   = "4-out.wav"
	promptTransferPre     = "5-pre.wav"
	promptTransferPost    = "5-post.wav"
	promptSignupMenu      = "9.wav"
	promptSignupYes       = "9-1.wav"
	promptSignupRecord    = "9-2.wav"
	promptSignupNo        = "9-3.wav"
)

// prompts resolves prompt names to playable URLs.
type prompts struct {
	base string
}

func (p prompts) url(name string) string {
	if p.base == "" {
		return name
	}
	return p.base + "/" + name
}
