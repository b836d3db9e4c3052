package main

import (
	"fmt"
	"os"
)

func usage() {
	fmt.Println(`brigade - smart order routing CLI

Usage:
  brigade stations                 List stations and their load
  brigade route <order-id>         Route an order's work items
  brigade rebalance                Run a rebalancing pass
  brigade optimize                 Run a performance tuning pass
  brigade status <assignment-id> <status>
                                   Transition an assignment
  brigade health                   Check API availability

Environment:
  BRIGADE_API_URL    API base URL (default http://localhost:8080)
  BRIGADE_API_TOKEN  Bearer token for authenticated deployments`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := NewApiClient()

	switch os.Args[1] {
	case "health":
		ok, err := client.CheckHealth()
		if err != nil || !ok {
			fmt.Printf("API is not available: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("API is up")

	case "stations":
		stations, err := client.ListStations()
		if err != nil {
			fail(err)
		}
		fmt.Printf("%-4s %-16s %-10s %-10s %-6s %-9s %s\n",
			"ID", "NAME", "TYPE", "LOAD", "EFF", "AVAIL", "EQUIPMENT")
		for _, s := range stations {
			fmt.Printf("%-4d %-16s %-10s %d/%-8d %-6d %-9v %v\n",
				s.ID, s.Name, s.StationType, s.CurrentLoad, s.Capacity,
				s.Efficiency, s.IsAvailable, s.Equipment)
		}

	case "route":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		result, err := client.RouteOrder(os.Args[2])
		if err != nil {
			fail(err)
		}
		printJSON(result)

	case "rebalance":
		result, err := client.Rebalance()
		if err != nil {
			fail(err)
		}
		printJSON(result)

	case "optimize":
		result, err := client.Optimize()
		if err != nil {
			fail(err)
		}
		printJSON(result)

	case "status":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		result, err := client.SetStatus(os.Args[2], os.Args[3])
		if err != nil {
			fail(err)
		}
		printJSON(result)

	default:
		usage()
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printJSON(v map[string]interface{}) {
	for key, value := range v {
		fmt.Printf("%s: %v\n", key, value)
	}
}
