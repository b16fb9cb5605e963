package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/opportunity-agent/pkg/search"
)

var (
	teamsSkills []string
	teamsTop    int
)

var teamsCmd = &cobra.Command{
	Use:   "teams [query]",
	Short: "Query the team directory index",
	Long: `Query the team directory index. With no arguments the full catalog is
listed. A free-text query ranks teams by relevance; --skills searches by
skill keywords instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("teams"); err != nil {
			return err
		}

		ctx := cmd.Context()
		client := search.NewClient(cfg.Search.Endpoint, cfg.Search.Key, cfg.Search.TeamsIndex)

		var (
			teams []search.Team
			err   error
		)
		switch {
		case len(teamsSkills) > 0:
			teams, err = client.SearchBySkills(ctx, teamsSkills, teamsTop)
		case len(args) == 1:
			teams, err = client.SearchTeams(ctx, args[0], teamsTop)
		default:
			teams, err = client.GetAllTeams(ctx)
		}
		if err != nil {
			return err
		}

		if len(teams) == 0 {
			fmt.Println("no teams found")
			return nil
		}

		for _, team := range teams {
			printTeam(team)
		}
		fmt.Printf("%d team(s)\n", len(teams))
		return nil
	},
}

func init() {
	teamsCmd.Flags().StringSliceVar(&teamsSkills, "skills", nil, "search by skill keywords")
	teamsCmd.Flags().IntVar(&teamsTop, "top", 10, "max results for ranked searches")
	rootCmd.AddCommand(teamsCmd)
}

func printTeam(team search.Team) {
	header := team.Name
	if team.SearchScore > 0 {
		header = fmt.Sprintf("%s  (score %.2f)", header, team.SearchScore)
	}
	fmt.Println(header)
	if team.Tower != "" {
		fmt.Printf("  tower: %s\n", team.Tower)
	}
	if team.Lead != "" {
		fmt.Printf("  lead:  %s <%s>\n", team.Lead, team.LeadEmail)
	}
	if len(team.Skills) > 0 {
		fmt.Printf("  skills: %s\n", strings.Join(team.Skills, ", "))
	}
	fmt.Println()
}
