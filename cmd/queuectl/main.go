// Command queuectl inspects and edits the candidate queue file.
//
//	queuectl list            print queued candidates
//	queuectl add "text"      append a candidate
//	queuectl pop             remove and print the head candidate
//	queuectl remove "text"   remove candidates matching the exact text
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"tweetpilot/internal/queue"
	"tweetpilot/internal/shared/config"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	cfg := config.Load()
	store := queue.NewStore(cfg.QueueFile)

	switch args[0] {
	case "list":
		candidates, err := store.Load()
		if err != nil {
			log.Fatalf("load queue: %v", err)
		}
		if len(candidates) == 0 {
			fmt.Println("queue is empty")
			return
		}
		for i, c := range candidates {
			fmt.Printf("%d: %s\n", i, c.Tweet)
		}

	case "add":
		if len(args) < 2 {
			usage()
		}
		if err := store.Append(queue.NewCandidate(args[1], 0)); err != nil {
			log.Fatalf("append: %v", err)
		}
		fmt.Println("added")

	case "pop":
		head, ok, err := store.PopHead()
		if err != nil {
			log.Fatalf("pop: %v", err)
		}
		if !ok {
			fmt.Println("queue is empty")
			return
		}
		fmt.Println(head.Tweet)

	case "remove":
		if len(args) < 2 {
			usage()
		}
		n, err := store.RemoveByText(args[1])
		if err != nil {
			log.Fatalf("remove: %v", err)
		}
		fmt.Printf("removed %d\n", n)

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: queuectl [list|add <text>|pop|remove <text>]")
	os.Exit(2)
}
