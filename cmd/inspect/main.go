package main

import (
	"bate-papo/domain"
	"bate-papo/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	collection := flag.String("collection", "participants", "Collection to dump: participants or messages")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock
	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := newTable()
	switch *collection {
	case "participants":
		err = dumpParticipants(db, table)
	case "messages":
		err = dumpMessages(db, table)
	default:
		err = fmt.Errorf("unknown collection %q", *collection)
	}
	if err != nil {
		log.Fatal(err)
	}
	table.Render()
}

func newTable() *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func dumpParticipants(db *badger.DB, table *tablewriter.Table) error {
	table.SetHeader([]string{"Name", "Last Status", "Last Seen"})
	return repositories.ScanParticipants(db, func(p domain.Participant) error {
		table.Append([]string{
			p.Name,
			strconv.FormatInt(p.LastStatus, 10),
			p.LastSeen().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
}

func dumpMessages(db *badger.DB, table *tablewriter.Table) error {
	table.SetHeader([]string{"Key", "Time", "Type", "From", "To", "Text"})
	statusStyle := color.New(color.FgYellow)
	return repositories.ScanMessages(db, func(key string, dm repositories.DiskMessage) error {
		messageType := string(dm.Message.Type)
		if dm.Message.Type == domain.StatusMessage {
			messageType = statusStyle.Render(messageType)
		}
		table.Append([]string{
			key,
			dm.Message.Time,
			messageType,
			dm.Message.From,
			dm.Message.To,
			dm.Message.Text,
		})
		return nil
	})
}
