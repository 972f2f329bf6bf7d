package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/triage"
)

// errQuit ends a processing run at the user's request.
var errQuit = errors.New("quit")

// prompter reads one answer per line.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question+" ")
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	answer := strings.TrimSpace(p.in.Text())
	if answer == "q" {
		return "", errQuit
	}
	return answer, nil
}

// choose asks until the answer is one of the keys.
func (p *prompter) choose(question string, keys ...string) (string, error) {
	hint := fmt.Sprintf("%s [%s]", question, strings.Join(keys, "/"))
	for {
		answer, err := p.ask(hint)
		if err != nil {
			return "", err
		}
		switch answer = strings.ToLower(answer); answer {
		case "yes":
			answer = "y"
		case "no":
			answer = "n"
		}
		for _, k := range keys {
			if answer == k {
				return k, nil
			}
		}
		fmt.Fprintf(p.out, "Please answer %s (q quits).\n", strings.Join(keys, " or "))
	}
}

func (p *prompter) yes(question string) (bool, error) {
	answer, err := p.choose(question, "y", "n")
	return answer == "y", err
}

// decide asks the questions for the session's current step.
func (p *prompter) decide(step triage.Step, task *model.Task) (triage.Decision, error) {
	switch step {
	case triage.StepClarify:
		var d triage.Clarify
		title, err := p.ask(fmt.Sprintf("Title [%s]:", task.Title))
		if err != nil {
			return nil, err
		}
		if title != "" && title != task.Title {
			d.Title = &title
		}
		desc, err := p.ask("Description (enter keeps it):")
		if err != nil {
			return nil, err
		}
		if desc != "" {
			d.Description = &desc
		}
		return d, nil

	case triage.StepActionRequired:
		ok, err := p.yes(step.Question())
		if err != nil || ok {
			return triage.ActionRequired{Actionable: true}, err
		}
		where, err := p.choose("Reference, someday or trash?", "r", "s", "t")
		if err != nil {
			return nil, err
		}
		disp := map[string]triage.Disposition{
			"r": triage.DispositionReference,
			"s": triage.DispositionSomeday,
			"t": triage.DispositionTrash,
		}[where]
		return triage.ActionRequired{Else: disp}, nil

	case triage.StepMultiStep:
		ok, err := p.yes(step.Question())
		return triage.MultiStep{Yes: ok}, err

	case triage.StepTwoMinute:
		ok, err := p.yes(step.Question())
		if err != nil || ok {
			return triage.TwoMinute{Yes: true}, err
		}
		for {
			answer, err := p.ask("Estimate in minutes:")
			if err != nil {
				return nil, err
			}
			if answer == "" {
				return triage.TwoMinute{}, nil
			}
			if n, convErr := strconv.Atoi(answer); convErr == nil {
				return triage.TwoMinute{TimeEstimate: n}, nil
			}
			fmt.Fprintln(p.out, "Please enter a whole number of minutes.")
		}

	case triage.StepDelegate:
		ok, err := p.yes(step.Question())
		if err != nil || !ok {
			return triage.Delegate{}, err
		}
		person, err := p.ask("Who?")
		return triage.Delegate{Yes: true, Person: person}, err

	case triage.StepSchedule:
		ok, err := p.yes(step.Question())
		if err != nil || !ok {
			return triage.Schedule{}, err
		}
		for {
			answer, err := p.ask("Date (" + model.DateLayout + "):")
			if err != nil {
				return nil, err
			}
			date, parseErr := model.ParseDate(answer)
			if parseErr == nil {
				return triage.Schedule{Yes: true, Date: date}, nil
			}
			fmt.Fprintln(p.out, parseErr)
		}
	}
	return nil, model.InvalidStatef("unknown step %d", int(step))
}

// processTask runs one task through the wizard. Rejected answers are
// reported and the step is asked again.
func processTask(cmd *cobra.Command, a *app, p *prompter, id string) error {
	ctx := cmd.Context()
	session, err := a.wizard.StartProcessing(ctx, id)
	if err != nil {
		return err
	}
	task, err := a.repo.GetTask(ctx, id)
	if err != nil {
		a.wizard.CancelProcessing()
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n» %s\n", task.Title)
	for {
		d, err := p.decide(session.Step, task)
		if err != nil {
			a.wizard.CancelProcessing()
			return err
		}
		outcome, err := a.wizard.CompleteStep(ctx, session.Step, d)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		if outcome.Task != nil {
			task = outcome.Task
		}
		if outcome.Done {
			if outcome.Project != nil {
				fmt.Fprintf(out, "→ project %q\n", outcome.Project.Title)
			} else {
				fmt.Fprintf(out, "→ %s\n", task.Status)
			}
			return nil
		}
		session = outcome.Next
	}
}

func newProcessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process [id]",
		Short: "Work through the inbox one question at a time",
		Long: `Work through the inbox one question at a time. Without an ID every inbox
task is processed, oldest first. Answer q at any prompt to stop; edits
already made to the current task are kept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, args []string, a *app) error {
			p := &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: cmd.OutOrStdout()}

			ids := args
			if len(ids) == 0 {
				inbox, err := a.repo.TasksByStatus(cmd.Context(), model.StatusInbox)
				if err != nil {
					return err
				}
				for _, t := range inbox {
					ids = append(ids, t.ID)
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Inbox zero.")
					return nil
				}
			}

			done := 0
			for _, id := range ids {
				err := processTask(cmd, a, p, id)
				if errors.Is(err, errQuit) {
					break
				}
				if err != nil {
					return err
				}
				done++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nProcessed %d of %d\n", done, len(ids))
			return nil
		}),
	}
}
