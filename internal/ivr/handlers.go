package ivr

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"

	"github.com/sunlightlabs/capitolphone/internal/directory"
	"github.com/sunlightlabs/capitolphone/internal/events"
	"github.com/sunlightlabs/capitolphone/internal/store"
)

// easterEggZipcode triggers the movie phone response instead of a lookup.
const easterEggZipcode = "00000"

// A single gather collects one digit, so at most nine legislators can be
// offered for selection.
const maxListedLegislators = 9

// handleStart greets the caller and gathers a five digit zipcode.
func (s *Server) handleStart(c echo.Context) error {
	return s.respondTwiML(c, []twiml.Element{
		s.play(promptIntro),
		gather(5, 10, "/voice/zipcode"),
	})
}

// handleZipcode resolves the entered zipcode to a legislator list and
// gathers a selection. With no fresh digits it falls back to the zipcode
// already in the call context, which is how redirects re-enter this menu.
func (s *Server) handleZipcode(c echo.Context) error {
	rc := requestContext(c)

	zipcode := c.FormValue("Digits")
	if zipcode == "" && rc.Record.Context.Zipcode != nil {
		zipcode = *rc.Record.Context.Zipcode
	}

	if zipcode == easterEggZipcode {
		return s.respondTwiML(c, []twiml.Element{
			say("Welcome to movie phone. " +
				"You seem like the type of person that would enjoy The Twilight Saga: Breaking Dawn Part 1. " +
				"The best showings are during the day, but you'll be stuck in middle school. " +
				"Ha ha ha. Loser."),
		})
	}

	legislators, err := s.cache.Lookup(c.Request().Context(), zipcode)
	if err != nil {
		s.logger.Error("zipcode lookup failed",
			zap.String("zipcode", zipcode),
			zap.Error(err),
		)
		return s.respondTwiML(c, []twiml.Element{
			say("I'm sorry, something went wrong looking up your representatives."),
			gather(5, 10, "/voice/zipcode", say("Please try again or enter a new zipcode.")),
		})
	}

	if len(legislators) == 0 {
		spokenZip := strings.Join(strings.Split(zipcode, ""), " ")
		return s.respondTwiML(c, []twiml.Element{
			say(fmt.Sprintf("I'm sorry, I wasn't able to locate any representatives for %s.", spokenZip)),
			gather(5, 10, "/voice/zipcode", say("Please try again or enter a new zipcode.")),
		})
	}

	rc.Record.Context.Zipcode = &zipcode
	s.events.Publish(rc.Record.CallSID, events.ZipcodeSelected, map[string]interface{}{
		"zipcode": zipcode,
	})

	script := legislatorMenuScript(legislators)

	selectPrompt := promptSelectLeg
	if len(legislators) > 3 {
		selectPrompt = promptSelectLegAlt
	}

	return s.respondTwiML(c, []twiml.Element{
		s.play(selectPrompt),
		gather(1, 10, "/voice/reps", say(script)),
	})
}

// legislatorMenuScript builds the spoken selection menu.
func legislatorMenuScript(legislators []directory.Legislator) string {
	var b strings.Builder
	for i, l := range legislators {
		if i == maxListedLegislators {
			break
		}
		fmt.Fprintf(&b, "Press %d for %s. ", i+1, l.FullName)
	}
	b.WriteString("Press 0 to enter a new zipcode.")
	return b.String()
}

// handleReps stores the selected legislator and presents the main menu.
// Digit 0 abandons the zipcode and starts over. Without fresh digits the
// menu replays for the legislator already in context.
func (s *Server) handleReps(c echo.Context) error {
	rc := requestContext(c)

	var legislator *directory.Legislator

	if digits := c.FormValue("Digits"); digits != "" {
		if digits == "0" {
			return s.respondTwiML(c, []twiml.Element{redirect("/voice")})
		}

		if rc.Record.Context.Zipcode == nil {
			return s.respondTwiML(c, []twiml.Element{
				say("I'm sorry, I lost track of your zipcode. Let's start over."),
				redirect("/voice"),
			})
		}

		legislators, err := s.cache.Lookup(c.Request().Context(), *rc.Record.Context.Zipcode)
		if err != nil {
			s.logger.Error("legislator list unavailable",
				zap.String("zipcode", *rc.Record.Context.Zipcode),
				zap.Error(err),
			)
			return s.respondTwiML(c, []twiml.Element{
				say("I'm sorry, something went wrong. Let's start over."),
				redirect("/voice"),
			})
		}

		selection, err := strconv.Atoi(digits)
		if err != nil || selection < 1 || selection > len(legislators) {
			return s.respondTwiML(c, []twiml.Element{
				say("I'm sorry, I don't recognize that selection. I will read you the options again."),
				redirect("/voice/zipcode"),
			})
		}

		legislator = &legislators[selection-1]
		rc.Record.Context.Legislator = legislator
		s.events.Publish(rc.Record.CallSID, events.LegislatorSelected, map[string]interface{}{
			"bioguide_id": legislator.BioguideID,
			"fullname":    legislator.FullName,
		})
	} else {
		legislator = rc.Record.Context.Legislator
		if legislator == nil {
			return s.respondTwiML(c, []twiml.Element{
				say("I'm sorry, no legislator is selected. Let's start over."),
				redirect("/voice"),
			})
		}
	}

	return s.respondTwiML(c, []twiml.Element{
		s.play(promptMainMenuIntro),
		say(legislator.FullName),
		gather(1, 30, "/voice/rep", s.play(promptMainMenu)),
	})
}

// handleRep dispatches the main menu selection.
func (s *Server) handleRep(c echo.Context) error {
	return s.renderSelection(c, c.FormValue("Digits"))
}

// handleNext re-enters the menu action named by the route parameter when
// the caller confirms with 1; anything else returns to the main menu.
func (s *Server) handleNext(c echo.Context) error {
	if c.FormValue("Digits") == "1" {
		return s.renderSelection(c, c.Param("selection"))
	}
	return s.respondTwiML(c, []twiml.Element{redirect("/voice/reps")})
}

// renderSelection produces the TwiML for one main menu action. Info
// actions chain to the following menu item via /voice/next; the office
// transfer is terminal.
func (s *Server) renderSelection(c echo.Context, selection string) error {
	rc := requestContext(c)
	ctx := c.Request().Context()

	// Actions 1-5 speak about or dial the selected legislator; reject
	// them explicitly when the context holds none.
	var legislator *directory.Legislator
	switch selection {
	case "1", "2", "3", "4", "5":
		legislator = rc.Record.Context.Legislator
		if legislator == nil {
			s.logger.Warn("menu action without selected legislator",
				zap.String("call_sid", rc.Record.CallSID),
				zap.String("selection", selection),
				zap.Error(ErrInvalidState),
			)
			return s.respondTwiML(c, []twiml.Element{
				say("I'm sorry, no legislator is selected. Let's start over."),
				redirect("/voice"),
			})
		}
	}

	switch selection {
	case "1":
		contribs, err := s.info.TopContributors(ctx, legislator.BioguideID)
		if err != nil {
			return s.infoUnavailable(c, "top contributors", err)
		}

		var b strings.Builder
		for _, contrib := range contribs {
			fmt.Fprintf(&b, "%s contributed $%s. ", contrib.Name, contrib.TotalAmount)
		}

		return s.respondTwiML(c, []twiml.Element{
			s.play(promptContributors),
			say(strings.TrimSpace(b.String())),
			gather(1, 10, "/voice/next/2", s.play(promptContributorsOut)),
		})

	case "2":
		votes, err := s.info.RecentVotes(ctx, legislator.BioguideID)
		if err != nil {
			return s.infoUnavailable(c, "recent votes", err)
		}

		var b strings.Builder
		for _, vote := range votes {
			fmt.Fprintf(&b, "On %s. Voted %s. The bill %s. ", vote.Question, vote.Voted, vote.Result)
		}

		return s.respondTwiML(c, []twiml.Element{
			s.play(promptVotes),
			say(fmt.Sprintf("%s. %s", legislator.FullName, strings.TrimSpace(b.String()))),
			gather(1, 10, "/voice/next/3", s.play(promptVotesOut)),
		})

	case "3":
		bio, err := s.info.Biography(ctx, legislator.BioguideID)
		if err != nil {
			return s.infoUnavailable(c, "biography", err)
		}
		if bio == "" {
			bio = fmt.Sprintf("Sorry, we were unable to locate a biography for %s", legislator.FullName)
		}

		return s.respondTwiML(c, []twiml.Element{
			say(bio),
			gather(1, 10, "/voice/next/4", s.play(promptBioOut)),
		})

	case "4":
		committees, err := s.info.Committees(ctx, legislator.BioguideID)
		if err != nil {
			return s.infoUnavailable(c, "committees", err)
		}

		names := make([]string, 0, len(committees))
		for _, committee := range committees {
			names = append(names, committee.Name)
		}

		return s.respondTwiML(c, []twiml.Element{
			say(legislator.FullName),
			s.play(promptCommittees),
			say(strings.Join(names, ". ")),
			gather(1, 10, "/voice/next/5", s.play(promptCommitteesOut)),
		})

	case "5":
		// Terminal for the IVR loop: the call either connects to the
		// office or ends.
		s.metrics.transfers.Inc()
		s.events.Publish(rc.Record.CallSID, events.OfficeTransfer, map[string]interface{}{
			"bioguide_id": legislator.BioguideID,
			"phone":       legislator.Phone,
		})

		return s.respondTwiML(c, []twiml.Element{
			s.play(promptTransferPre),
			say(legislator.FullName),
			s.play(promptTransferPost),
			dial(legislator.Phone),
		})

	case "9":
		return s.respondTwiML(c, []twiml.Element{
			gather(1, 10, "/voice/signup", s.play(promptSignupMenu)),
		})

	case "0":
		return s.respondTwiML(c, []twiml.Element{redirect("/voice/zipcode")})

	default:
		return s.respondTwiML(c, []twiml.Element{
			say("I'm sorry, I don't recognize that selection. I will read you the options again."),
			redirect("/voice/reps"),
		})
	}
}

// infoUnavailable degrades a failed info lookup to a spoken prompt; the
// caller never hears a protocol error.
func (s *Server) infoUnavailable(c echo.Context, what string, err error) error {
	s.logger.Error("info lookup failed", zap.String("lookup", what), zap.Error(err))
	return s.respondTwiML(c, []twiml.Element{
		say("I'm sorry, that information is unavailable right now."),
		redirect("/voice/reps"),
	})
}

// handleSignup processes the SMS signup menu: 1 opts in, 2 records a
// message, 3 declines.
func (s *Server) handleSignup(c echo.Context) error {
	rc := requestContext(c)

	switch c.FormValue("Digits") {
	case "1":
		signup := &store.Signup{
			ID:        uuid.NewString(),
			Phone:     rc.Record.From,
			Timestamp: rc.Now,
		}
		if err := s.store.InsertSignup(c.Request().Context(), signup); err != nil {
			s.logger.Error("failed to insert signup", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to record signup")
		}

		s.metrics.signups.Inc()
		s.events.Publish(rc.Record.CallSID, events.SMSSignup, map[string]interface{}{
			"phone": rc.Record.From,
		})

		return s.respondTwiML(c, []twiml.Element{
			s.play(promptSignupYes),
			redirect("/voice/reps"),
		})

	case "2":
		return s.respondTwiML(c, []twiml.Element{
			s.play(promptSignupRecord),
			record("/voice/message", 10, 120),
			redirect("/voice/reps"),
		})

	case "3":
		return s.respondTwiML(c, []twiml.Element{
			s.play(promptSignupNo),
			redirect("/voice/reps"),
		})

	default:
		return s.respondTwiML(c, []twiml.Element{redirect("/voice/reps")})
	}
}

// handleMessage stores the recording URL posted by the record verb.
func (s *Server) handleMessage(c echo.Context) error {
	rc := requestContext(c)

	voicemail := &store.Voicemail{
		ID:           uuid.NewString(),
		CallSID:      rc.Record.CallSID,
		RecordingURL: c.FormValue("RecordingUrl"),
		Timestamp:    rc.Now,
	}
	if err := s.store.InsertVoicemail(c.Request().Context(), voicemail); err != nil {
		s.logger.Error("failed to insert voicemail", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record message")
	}

	s.metrics.voicemails.Inc()
	s.events.Publish(rc.Record.CallSID, events.VoicemailRecorded, map[string]interface{}{
		"url": voicemail.RecordingURL,
	})

	return s.respondTwiML(c, []twiml.Element{redirect("/voice/reps")})
}
