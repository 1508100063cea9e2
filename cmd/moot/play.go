package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mootlab/moot"
	"github.com/mootlab/moot/internal/adapters/graphfile"
	"github.com/mootlab/moot/internal/adapters/memory"
	"github.com/mootlab/moot/pkg/domain"
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <graph.yaml>",
	Short: "Play a trial graph interactively",
	Long:  `Runs one session of the given graph in the terminal, rendering each dialogue beat and scoring your picks.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		roleID, _ := cmd.Flags().GetString("role")

		if err := runPlay(args[0], roleID); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().String("role", "", "Role to play as (empty plays unrestricted)")
}

func runPlay(path, roleID string) error {
	g, err := graphfile.Load(path)
	if err != nil {
		return fmt.Errorf("load graph: %w", err)
	}
	if err := moot.ValidateGraph(g); err != nil {
		return err
	}

	graphs := memory.NewGraphStore()
	graphs.Put(g)

	engine, err := moot.New(graphs, memory.NewSessionStore(), memory.NewDecisionStore())
	if err != nil {
		return err
	}

	ctx := context.Background()
	sessionID := uuid.NewString()
	if _, err := engine.CreateSession(ctx, sessionID, "", g.ID); err != nil {
		return err
	}
	if _, err := engine.StartSession(ctx, sessionID); err != nil {
		return err
	}

	ui := newPlayUI()
	ui.title(g.Name)

	reader := bufio.NewReader(os.Stdin)
	total := 0

	for {
		snap, err := engine.SessionSnapshot(ctx, sessionID)
		if err != nil {
			return err
		}
		if snap.Status == domain.SessionFinished {
			break
		}

		node, ok := g.NodeByID(snap.CurrentNodeID)
		if !ok {
			return fmt.Errorf("node %q: %w", snap.CurrentNodeID, domain.ErrGraphMisconfigured)
		}
		ui.node(node)

		edges, err := engine.AvailableEdges(ctx, sessionID, true, roleID)
		if err != nil {
			return err
		}
		if len(edges) == 0 {
			ui.info("No responses available here. Session over.")
			if _, err := engine.FinalizeSession(ctx, sessionID); err != nil {
				return err
			}
			break
		}

		for i, e := range edges {
			ui.choice(i+1, e.Text)
		}

		asked := time.Now()
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)

		if line == "exit" || line == "quit" {
			ui.info("Leaving the courtroom.")
			_, err := engine.PauseSession(ctx, sessionID)
			return err
		}

		pick, err := strconv.Atoi(line)
		if err != nil || pick < 1 || pick > len(edges) {
			ui.info("Pick a number from the list.")
			continue
		}

		elapsed := time.Since(asked).Seconds()
		decision, err := engine.ProcessDecision(ctx, sessionID, moot.DecisionInput{
			ParticipantID:  "player",
			RoleID:         roleID,
			Registered:     true,
			EdgeID:         edges[pick-1].ID,
			ElapsedSeconds: &elapsed,
		})
		if err != nil {
			ui.info(fmt.Sprintf("Rejected: %v", err))
			continue
		}

		total += decision.Score
		ui.score(decision.Score, total)
	}

	ui.info(fmt.Sprintf("Trial closed. Final score: %d", total))
	return nil
}

// playUI renders the session; markdown and color only when Stdout is a
// real terminal.
type playUI struct {
	tty    bool
	render func(string) (string, error)
	colors termenv.Profile
}

func newPlayUI() *playUI {
	ui := &playUI{
		tty:    term.IsTerminal(int(os.Stdout.Fd())),
		colors: termenv.ColorProfile(),
	}
	if ui.tty {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
		if err == nil {
			ui.render = r.Render
		}
	}
	return ui
}

func (ui *playUI) title(name string) {
	if ui.tty {
		fmt.Println(termenv.String(name).Foreground(ui.colors.Color("#c084fc")).Bold())
		return
	}
	fmt.Println(name)
}

func (ui *playUI) node(n *domain.Node) {
	fmt.Println()
	ui.title(n.Title)

	body := n.Body
	if body == "" {
		return
	}
	if ui.render != nil {
		if out, err := ui.render(body); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Println(body)
}

func (ui *playUI) choice(n int, text string) {
	if ui.tty {
		num := termenv.String(fmt.Sprintf("[%d]", n)).Foreground(ui.colors.Color("#818cf8"))
		fmt.Printf("  %s %s\n", num, text)
		return
	}
	fmt.Printf("  [%d] %s\n", n, text)
}

func (ui *playUI) score(score, total int) {
	msg := fmt.Sprintf("+%d points (total %d)", score, total)
	if score < 0 {
		msg = fmt.Sprintf("%d points (total %d)", score, total)
	}
	if ui.tty {
		fmt.Println(termenv.String(msg).Foreground(ui.colors.Color("#34d399")))
		return
	}
	fmt.Println(msg)
}

func (ui *playUI) info(msg string) {
	fmt.Println(msg)
}
