// Package main provides a terminal client for the validator hub:
// authenticate with a token, watch history broadcasts, submit decisions.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/avetisov/qrvalidator/internal/client"
	"github.com/avetisov/qrvalidator/internal/models"
	"github.com/avetisov/qrvalidator/internal/service"
)

var (
	historyMu   sync.Mutex
	lastHistory []models.ScanRecord
)

func main() {
	addr := flag.String("a", "ws://localhost:3000/api/socket", "hub websocket URL")
	token := flag.String("t", "", "auth token (or AUTH_TOKEN env)")
	flag.Parse()

	if *token == "" {
		*token = os.Getenv("AUTH_TOKEN")
	}
	if *token == "" {
		log.Fatal("an auth token is required (-t or AUTH_TOKEN)")
	}

	ctx := context.Background()

	c, err := client.Dial(ctx, *addr, printHistory)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer c.Close()

	authCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	user, err := c.Authenticate(authCtx, *token)
	cancel()
	if err != nil {
		log.Fatalf("authenticate: %v", err)
	}
	fmt.Printf("Signed in as %s (level %d)\n", user.Name, user.AuthorizeLevel)
	fmt.Println("Commands: submit <valid|notvalid> <payload> | delete <id> | decrypt <token> | report | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		switch parts[0] {
		case "quit":
			return
		case "submit":
			if len(parts) != 3 {
				fmt.Println("usage: submit <valid|notvalid> <payload>")
				continue
			}
			status := models.StatusValid
			if parts[1] == "notvalid" {
				status = models.StatusNotValid
			}
			if err := c.SubmitValidation(ctx, parts[2], status); err != nil {
				fmt.Println("submit failed:", err)
			}
		case "delete":
			if len(parts) < 2 {
				fmt.Println("usage: delete <id>")
				continue
			}
			if err := c.DeleteEntry(ctx, parts[1]); err != nil {
				fmt.Println("delete failed:", err)
			}
		case "report":
			reportCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			historyMu.Lock()
			history := lastHistory
			historyMu.Unlock()
			rows, err := c.AttendanceReport(reportCtx, history)
			cancel()
			if err != nil {
				fmt.Println("report failed:", err)
				continue
			}
			printReport(rows)
		case "decrypt":
			if len(parts) < 2 {
				fmt.Println("usage: decrypt <token>")
				continue
			}
			resp, err := c.DecryptPayload(ctx, parts[1])
			if err != nil {
				fmt.Println("decrypt failed:", err)
				continue
			}
			if !resp.Success {
				fmt.Println("rejected:", resp.Message)
				continue
			}
			fmt.Printf("decrypted: %s\n", resp.Message)
		default:
			fmt.Println("unknown command:", parts[0])
		}
	}
}

func printHistory(records []models.ScanRecord) {
	historyMu.Lock()
	lastHistory = records
	historyMu.Unlock()

	fmt.Printf("--- history (%d records) ---\n", len(records))
	for _, r := range records {
		fmt.Printf("%s  [%s]  %s  by %s at %s\n",
			r.ID, r.Status, r.Data, r.ValidatorName, r.ValidatedAt)
	}
}

func printReport(rows []service.DatasetRow) {
	fmt.Printf("--- attendance (%d rows) ---\n", len(rows))
	for _, row := range rows {
		marker := row[service.AttendanceColumn]
		var rest []string
		for k, v := range row {
			if k == service.AttendanceColumn {
				continue
			}
			rest = append(rest, k+"="+v)
		}
		fmt.Printf("%-6s %s\n", marker, strings.Join(rest, "  "))
	}
}
