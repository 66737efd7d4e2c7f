package cmd

import (
	"fmt"
	"log"

	"github.com/CheesyGamer77/PrisonWarden/prisonwarden"
	"github.com/spf13/cobra"
	"gorm.io/gorm/clause"
)

var (
	initGuildID              string
	initInviteChannel        string
	initInviteCreatesChannel string
	initInviteDeletesChannel string
	initMemberJoinsChannel   string
	initAppealRoles          []string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database and seed per-guild configuration",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if cfg.DatabaseType == "" {
			log.Fatal("Environment variable PW_DATABASE_TYPE not set (must be one of: sqlite, postgres)")
		}
		if cfg.Database == "" {
			log.Fatal(
				"Environment variable PW_DATABASE not set (must be a valid " +
					"database connection string or sqlite file path)",
			)
		}
		// Run database migrations
		db, err := prisonwarden.CreateDB(ctx, cfg.DatabaseType, cfg.Database)
		if err != nil {
			log.Fatalf("Error creating database: %v", err)
		}

		out := cmd.OutOrStdout()

		if initGuildID == "" {
			fmt.Fprintln(
				out,
				"Database migrated. Pass --guild to seed per-guild configuration.",
			)
			return
		}

		guildConfig := prisonwarden.GuildConfig{
			GuildID:         initGuildID,
			InviteChannelID: initInviteChannel,
		}
		err = db.WithContext(ctx).Clauses(
			clause.OnConflict{UpdateAll: true},
		).Create(&guildConfig).Error
		if err != nil {
			log.Fatalf("Error seeding guild config: %v", err)
		}

		modlogChannels := prisonwarden.ModlogChannels{
			GuildID:                initGuildID,
			InviteCreatesChannelID: initInviteCreatesChannel,
			InviteDeletesChannelID: initInviteDeletesChannel,
			MemberJoinsChannelID:   initMemberJoinsChannel,
		}
		err = db.WithContext(ctx).Clauses(
			clause.OnConflict{UpdateAll: true},
		).Create(&modlogChannels).Error
		if err != nil {
			log.Fatalf("Error seeding modlog channels: %v", err)
		}

		for _, roleID := range initAppealRoles {
			appealRole := prisonwarden.AppealRole{
				GuildID: initGuildID,
				RoleID:  roleID,
			}
			err = db.WithContext(ctx).Where(
				"server_id = ? AND role_id = ?",
				initGuildID,
				roleID,
			).FirstOrCreate(&appealRole).Error
			if err != nil {
				log.Fatalf("Error seeding appeal role: %v", err)
			}
		}

		fmt.Fprintf(out, "Seeded configuration for guild %s.\n", initGuildID)
		fmt.Fprintln(
			out,
			"Initialization complete. You can now start the bot with the 'run' subcommand.",
		)
	},
}

func init() {
	initCmd.Flags().StringVar(
		&initGuildID, "guild", "",
		"Guild (server) ID to seed configuration for",
	)
	initCmd.Flags().StringVar(
		&initInviteChannel, "invite-channel", "",
		"Channel ID one-time appeal invites are created for",
	)
	initCmd.Flags().StringVar(
		&initInviteCreatesChannel, "invite-creates-channel", "",
		"Channel ID receiving invite-created logs",
	)
	initCmd.Flags().StringVar(
		&initInviteDeletesChannel, "invite-deletes-channel", "",
		"Channel ID receiving invite-deleted logs",
	)
	initCmd.Flags().StringVar(
		&initMemberJoinsChannel, "member-joins-channel", "",
		"Channel ID receiving member-join logs",
	)
	initCmd.Flags().StringSliceVar(
		&initAppealRoles, "appeal-role", nil,
		"Role ID marking members with a pending appeal (repeatable)",
	)

	rootCmd.AddCommand(initCmd)
}
