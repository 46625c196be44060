package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ppiankov/veracity/internal/history"
	"github.com/ppiankov/veracity/internal/model"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past fact checks",
	Long: `History lists completed checks, newest first. At most the last 100
checks are retained; older entries are dropped automatically.`,
	RunE: runHistoryList,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <index>",
	Short: "Delete one history entry",
	Long:  `Delete removes the entry at the given index as shown by 'veracity history' (0 is the most recent check).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func openHistory() (*history.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	capacity := model.DefaultConfig().History.Capacity
	return history.NewStore(filepath.Join(dir, "history.json"), capacity), nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}

	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No fact checks yet.")
		return nil
	}

	// Newest first for display; storage is oldest first
	for displayIdx := 0; displayIdx < len(entries); displayIdx++ {
		entry := entries[history.StorageIndex(displayIdx, len(entries))]

		fmt.Printf("[%d] %s\n", displayIdx, entry.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("    Claim: %s\n", entry.Result.Sentence)
		fmt.Printf("    Rating: %s  Severity: %s\n", entry.Result.Rating, entry.Result.Severity)
		if entry.Result.Explanation != "" {
			fmt.Printf("    %s\n", entry.Result.Explanation)
		}
		fmt.Println()
	}

	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	displayIdx, err := strconv.Atoi(args[0])
	if err != nil || displayIdx < 0 {
		return fmt.Errorf("invalid history index: %s", args[0])
	}

	store, err := openHistory()
	if err != nil {
		return err
	}

	// Re-read right before deleting: the display index is only meaningful
	// against the current length.
	entries, err := store.List()
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if displayIdx >= len(entries) {
		return fmt.Errorf("history index out of range: %d (have %d entries)", displayIdx, len(entries))
	}

	if err := store.DeleteAt(history.StorageIndex(displayIdx, len(entries))); err != nil {
		return fmt.Errorf("delete history entry: %w", err)
	}

	fmt.Printf("Deleted history entry %d.\n", displayIdx)
	return nil
}
