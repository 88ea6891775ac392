package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestRouter_ApplicationCommands(t *testing.T) {
	t.Parallel()

	r := NewCommandRouter()
	noop := func(*discordgo.Session, *discordgo.InteractionCreate) {}

	def := &discordgo.ApplicationCommand{Name: "reasoning"}
	r.RegisterCommand("reasoning", def, noop)
	r.RegisterHandler("reasoning/set", noop)
	r.RegisterHandler("reasoning/get", noop)
	r.RegisterCommand("help", &discordgo.ApplicationCommand{Name: "help"}, noop)

	cmds := r.ApplicationCommands()
	if len(cmds) != 2 {
		t.Fatalf("commands: got %d, want 2 (subcommand handlers carry no definition)", len(cmds))
	}
}

func TestInteractionKey(t *testing.T) {
	t.Parallel()

	plain := discordgo.ApplicationCommandInteractionData{Name: "draw"}
	if got := interactionKey(plain); got != "draw" {
		t.Errorf("plain: got %q", got)
	}

	sub := discordgo.ApplicationCommandInteractionData{
		Name: "reasoning",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "set", Type: discordgo.ApplicationCommandOptionSubCommand},
		},
	}
	if got := interactionKey(sub); got != "reasoning/set" {
		t.Errorf("subcommand: got %q", got)
	}

	// A non-subcommand first option does not extend the key.
	opt := discordgo.ApplicationCommandInteractionData{
		Name: "draw",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "prompt", Type: discordgo.ApplicationCommandOptionString},
		},
	}
	if got := interactionKey(opt); got != "draw" {
		t.Errorf("option: got %q", got)
	}
}

func TestPermissionChecker(t *testing.T) {
	t.Parallel()

	withRole := NewPermissionChecker("admin-role")
	byPermission := NewPermissionChecker("")

	member := func(roles []string, perms int64) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{
			Interaction: &discordgo.Interaction{
				Member: &discordgo.Member{Roles: roles, Permissions: perms},
			},
		}
	}

	if !withRole.IsAdmin(member([]string{"admin-role", "other"}, 0)) {
		t.Error("role holder should be admin")
	}
	if withRole.IsAdmin(member([]string{"other"}, discordgo.PermissionAdministrator)) {
		t.Error("configured role ignores the permission bit")
	}
	if !byPermission.IsAdmin(member(nil, discordgo.PermissionAdministrator)) {
		t.Error("administrator bit should grant admin")
	}
	if byPermission.IsAdmin(member(nil, discordgo.PermissionSendMessages)) {
		t.Error("plain member should not be admin")
	}

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}
	if withRole.IsAdmin(dm) || byPermission.IsAdmin(dm) {
		t.Error("DM interactions have no member and are never admin")
	}
}
