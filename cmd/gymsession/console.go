package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/2beens/gymsession/internal/gymstats"
	"github.com/2beens/gymsession/internal/gymstats/workout"

	log "github.com/sirupsen/logrus"
)

const helpText = `commands:
  load ID        walk the session with the given id
  start [template=ID] NAME
                 start a new session, optionally from a template
  next | prev    move to the next / previous exercise
  jump N         move to exercise N (1 based)
  log W R        log a set: added weight W, reps R
  del ID         delete set ID of the current exercise
  sets           today's sets of the current exercise
  prefill        last input of the current exercise
  prs            personal records of the current exercise
  history        per day summary of the current exercise
  complete       finish the session
  cancel         abandon the session
  stats          response cache stats
  quit`

// bellNotifier rings the terminal bell on every personal record.
type bellNotifier struct {
	out io.Writer
}

func (n bellNotifier) PersonalRecord(exercise string, result gymstats.PRResult) {
	kinds := make([]string, 0, 2)
	for _, kind := range result.Kinds() {
		kinds = append(kinds, string(kind))
	}
	_, _ = fmt.Fprintf(n.out, "\a*** new %s record on %s ***\n", strings.Join(kinds, " and "), exercise)
}

type console struct {
	engine *workout.Engine
	out    io.Writer
}

func newConsole(engine *workout.Engine, out io.Writer) *console {
	return &console{
		engine: engine,
		out:    out,
	}
}

// run executes commands line by line until quit, EOF or ctx is done.
func (c *console) run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				scanErr <- ctx.Err()
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}
			if quit := c.execute(ctx, line); quit {
				return nil
			}
			c.prompt()
		}
	}
}

func (c *console) prompt() {
	c.printf("[%s] > ", c.engine.Describe())
}

func (c *console) execute(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	command, args := strings.ToLower(fields[0]), fields[1:]
	log.Tracef("console: command [%s] %v", command, args)

	var err error
	switch command {
	case "quit", "exit", "q":
		return true
	case "help", "h":
		c.printf("%s\n", helpText)
	case "load":
		var sessionID int
		if sessionID, err = intArg(args, 0, "session id"); err == nil {
			err = c.engine.LoadSession(ctx, sessionID)
		}
	case "start":
		err = c.start(ctx, args)
	case "next", "n":
		err = c.engine.Walker().Advance(ctx)
	case "prev", "p":
		err = c.engine.Walker().Retreat(ctx)
	case "jump", "j":
		var position int
		if position, err = intArg(args, 0, "position"); err == nil {
			err = c.engine.Walker().Jump(ctx, position-1)
		}
	case "log", "l":
		err = c.log(ctx, args)
	case "del":
		var setID int
		if setID, err = intArg(args, 0, "set id"); err == nil {
			err = c.engine.DeleteSet(ctx, setID)
		}
	case "sets":
		c.printSets()
	case "prefill":
		c.printPrefill(ctx)
	case "prs":
		err = c.printRecords(ctx)
	case "history":
		err = c.printHistory(ctx)
	case "complete":
		err = c.engine.Walker().Complete(ctx)
	case "cancel":
		err = c.engine.Walker().Cancel(ctx)
	case "stats":
		stats := c.engine.CacheStats()
		c.printf("cache: %d valid, %d expired, %d total\n", stats.Valid, stats.Expired, stats.Total)
	default:
		c.printf("unknown command [%s], try help\n", command)
	}

	if err != nil {
		log.Debugf("console: command [%s]: %s", command, err)
		c.printf("error: %s\n", gymstats.UserMessage(err))
	}
	return false
}

func (c *console) start(ctx context.Context, args []string) error {
	var templateID *int
	if len(args) > 0 && strings.HasPrefix(args[0], "template=") {
		id, err := strconv.Atoi(strings.TrimPrefix(args[0], "template="))
		if err != nil {
			return gymstats.NewValidationError("template", "must be a whole number")
		}
		templateID = &id
		args = args[1:]
	}
	if len(args) == 0 {
		return gymstats.NewValidationError("name", "session name is required")
	}
	name := strings.Join(args, " ")

	// empty date lets the backend use its own today
	started, err := c.engine.StartSession(ctx, name, "", templateID)
	if err != nil {
		return err
	}
	c.printf("started session %d [%s] with %d exercises\n", started.ID, started.Name, len(started.Exercises))
	return nil
}

func (c *console) log(ctx context.Context, args []string) error {
	weight, err := floatArg(args, 0, "weight")
	if err != nil {
		return err
	}
	reps, err := intArg(args, 1, "reps")
	if err != nil {
		return err
	}

	logged, err := c.engine.LogCurrent(ctx, weight, reps)
	if err != nil {
		return err
	}
	c.printf("logged set #%d (id %d): %s x %d\n",
		logged.Set.SetNumber, logged.Set.ID, formatWeight(logged.TotalWeight), logged.Set.Reps)
	return nil
}

func (c *console) printSets() {
	current := c.engine.Walker().CurrentSets()
	if len(current) == 0 {
		c.printf("no sets yet\n")
		return
	}
	for _, s := range current {
		c.printf("  #%d (id %d) %s x %d\n", s.SetNumber, s.ID, formatWeight(s.TotalWeight), s.Reps)
	}
}

func (c *console) printPrefill(ctx context.Context) {
	snapshot, found := c.engine.Prefill(ctx)
	if !found {
		c.printf("no recent input\n")
		return
	}
	c.printf("last input: %s x %d (%s)\n",
		formatWeight(snapshot.Weight), snapshot.Reps, snapshot.SavedAt().Format("Jan 2 15:04"))
}

func (c *console) printRecords(ctx context.Context) error {
	current, err := c.engine.Walker().Current()
	if err != nil {
		return err
	}
	records := c.engine.PersonalRecords(ctx, current.ExerciseName)
	if len(records) == 0 {
		c.printf("no records for %s\n", current.ExerciseName)
		return nil
	}
	for _, record := range records {
		c.printf("  %s: %s (%s)\n", record.Kind, formatWeight(record.Value), record.DateAchieved)
	}
	return nil
}

func (c *console) printHistory(ctx context.Context) error {
	current, err := c.engine.Walker().Current()
	if err != nil {
		return err
	}
	for _, day := range c.engine.HistorySummary(ctx, current.ExerciseName) {
		c.printf("  %s: %d sets, max %s, volume %s\n", day.Date, day.Sets, formatWeight(day.MaxWeight), formatWeight(day.Volume))
	}
	return nil
}

func (c *console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func intArg(args []string, i int, name string) (int, error) {
	if len(args) <= i {
		return 0, gymstats.NewValidationError(name, "is required")
	}
	value, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, gymstats.NewValidationError(name, "must be a whole number")
	}
	return value, nil
}

func floatArg(args []string, i int, name string) (float64, error) {
	if len(args) <= i {
		return 0, gymstats.NewValidationError(name, "is required")
	}
	value, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return 0, gymstats.NewValidationError(name, "must be a number")
	}
	return value, nil
}

func formatWeight(weight float64) string {
	return strconv.FormatFloat(weight, 'f', -1, 64)
}
