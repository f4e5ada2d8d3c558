package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/studybat/internal/timer"
	"github.com/sadopc/studybat/internal/tracker"
)

var csvHeader = []string{"ID", "Title", "Subject", "Priority", "Status", "Due", "Grade", "Expected (min)", "Time Spent (s)", "Time Spent", "Files", "Created"}

func ToCSV(assignments []tracker.Assignment, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, a := range assignments {
		expected := ""
		if a.ExpectedTime > 0 {
			expected = strconv.Itoa(a.ExpectedTime)
		}
		row := []string{
			a.ID,
			a.Title,
			a.Subject,
			string(a.Priority),
			string(a.Status),
			a.DueDate.Local().Format(time.RFC3339),
			a.Grade,
			expected,
			strconv.FormatInt(a.TimeSpent, 10),
			timer.FormatTime(a.TimeSpent),
			strconv.Itoa(len(a.Files)),
			a.CreatedAt.Local().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
