package knowledge

import "github.com/doeshing/nixsay/internal/domain"

// Operation names. Parser rules and risk rules refer to these.
const (
	OpInstall             = "install"
	OpRemove              = "remove"
	OpSearch              = "search"
	OpUpdate              = "update"
	OpList                = "list"
	OpListGenerations     = "list-generations"
	OpRollback            = "rollback"
	OpSwitchGeneration    = "switch-generation"
	OpCollectGarbage      = "collect-garbage"
	OpCollectGarbageOlder = "collect-garbage-older"
	OpServiceStatus       = "service-status"
	OpServiceControl      = "service-control"
	OpRebuild             = "rebuild"
	OpEditConfig          = "edit-config"
	OpShowConfig          = "show-config"
	OpRemovePath          = "remove-path"
	OpHelp                = "help"
)

// SystemConfigPath is the NixOS configuration entry point.
const SystemConfigPath = "/etc/nixos/configuration.nix"

const systemProfile = "/nix/var/nix/profiles/system"

// builtinOperations is the single source of command templates.
func builtinOperations() []domain.Operation {
	return []domain.Operation{
		{
			Name:        OpInstall,
			Action:      domain.ActionInstall,
			Description: "Install a package",
			TargetKind:  domain.TargetPackage,
			Templates: map[domain.Method]string{
				domain.MethodUser:      "nix profile install nixpkgs#{{target}}",
				domain.MethodSystem:    "sudo nano " + SystemConfigPath,
				domain.MethodEphemeral: "nix-shell -p {{target}}",
			},
			DefaultMethod: domain.MethodUser,
			Class:         domain.ClassMutation,
			Explanation:   "Downloads {{target}} from nixpkgs and makes it available ({{method}} install).",
			// NixOS installs system-wide only through the configuration.
			MethodExplanations: map[domain.Method]string{
				domain.MethodSystem: "System-wide packages are declared in " + SystemConfigPath +
					". Add {{target}} to environment.systemPackages (environment.systemPackages = with pkgs; [ {{target}} ];)," +
					` save, then say "rebuild" to apply it.`,
			},
			InteractiveMethods: map[domain.Method]bool{domain.MethodSystem: true},
		},
		{
			Name:        OpRemove,
			Action:      domain.ActionRemove,
			Description: "Remove an installed package",
			TargetKind:  domain.TargetPackage,
			Templates: map[domain.Method]string{
				domain.MethodUser:   "nix profile remove {{target}}",
				domain.MethodSystem: "sudo nano " + SystemConfigPath,
			},
			DefaultMethod: domain.MethodUser,
			Class:         domain.ClassMutation,
			Explanation:   "Removes {{target}} from your profile. The files stay in the Nix store until the next garbage collection.",
			MethodExplanations: map[domain.Method]string{
				domain.MethodSystem: "Delete {{target}} from environment.systemPackages in " + SystemConfigPath +
					`, save, then say "rebuild" to apply it. The files stay in the Nix store until the next garbage collection.`,
			},
			InteractiveMethods: map[domain.Method]bool{domain.MethodSystem: true},
		},
		{
			Name:          OpSearch,
			Action:        domain.ActionSearch,
			Description:   "Search nixpkgs",
			TargetKind:    domain.TargetTerm,
			Templates:     map[domain.Method]string{domain.MethodUser: "nix search nixpkgs {{target}}"},
			DefaultMethod: domain.MethodUser,
			Class:         domain.ClassNetwork,
			Idempotent:    true,
			Explanation:   "Searches nixpkgs for packages matching {{target}}. Nothing is installed.",
		},
		{
			Name:        OpUpdate,
			Action:      domain.ActionUpdate,
			Description: "Update packages",
			Templates: map[domain.Method]string{
				domain.MethodSystem: "sudo nixos-rebuild switch --upgrade",
				domain.MethodUser:   "nix profile upgrade --all",
			},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Fetches newer package versions and switches to them ({{method}} scope).",
		},
		{
			Name:        OpList,
			Action:      domain.ActionList,
			Description: "List installed packages",
			Templates: map[domain.Method]string{
				domain.MethodUser:   "nix profile list",
				domain.MethodSystem: "nix-store --query --references /run/current-system/sw",
			},
			DefaultMethod: domain.MethodUser,
			Class:         domain.ClassQuery,
			Idempotent:    true,
			Explanation:   "Lists the packages installed in your profile.",
			MethodExplanations: map[domain.Method]string{
				domain.MethodSystem: "Lists the store paths of packages declared in environment.systemPackages.",
			},
		},
		{
			Name:          OpListGenerations,
			Action:        domain.ActionList,
			Description:   "List system generations",
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo nix-env --list-generations --profile " + systemProfile},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassQuery,
			Idempotent:    true,
			Explanation:   "Lists every system generation you can roll back to.",
		},
		{
			Name:          OpRollback,
			Action:        domain.ActionRollback,
			Description:   "Roll back to the previous generation",
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo nixos-rebuild switch --rollback"},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Switches the system back to the previous generation.",
		},
		{
			Name:          OpSwitchGeneration,
			Action:        domain.ActionRollback,
			Description:   "Switch to a specific generation",
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo nix-env --switch-generation {{generation}} -p " + systemProfile},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Activates system generation {{generation}}.",
		},
		{
			Name:          OpCollectGarbage,
			Action:        domain.ActionClean,
			Description:   "Collect garbage",
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo nix-collect-garbage -d"},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Deletes old generations and every store path nothing refers to. You cannot roll back past this point.",
		},
		{
			Name:          OpCollectGarbageOlder,
			Action:        domain.ActionClean,
			Description:   "Collect garbage older than a period",
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo nix-collect-garbage --delete-older-than {{older_than}}"},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Deletes generations older than {{older_than}} and the store paths they alone used.",
		},
		{
			Name:          OpServiceStatus,
			Action:        domain.ActionService,
			Description:   "Show service status",
			TargetKind:    domain.TargetService,
			Templates:     map[domain.Method]string{domain.MethodSystem: "systemctl status {{target}}"},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassQuery,
			Idempotent:    true,
			Explanation:   "Shows whether {{target}} is running and its recent log lines.",
		},
		{
			Name:          OpServiceControl,
			Action:        domain.ActionService,
			Description:   "Start, stop, restart, enable or disable a service",
			TargetKind:    domain.TargetService,
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo systemctl {{op}} {{target}}"},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Runs systemctl {{op}} on {{target}}. Declarative settings in configuration.nix win at the next rebuild.",
		},
		{
			Name:          OpRebuild,
			Action:        domain.ActionRebuild,
			Description:   "Rebuild and switch the system",
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo nixos-rebuild switch"},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Builds the configuration in " + SystemConfigPath + " and activates it.",
		},
		{
			Name:          OpEditConfig,
			Action:        domain.ActionConfig,
			Description:   "Edit the system configuration",
			Templates:     map[domain.Method]string{domain.MethodSystem: "sudo nano " + SystemConfigPath},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Interactive:   true,
			Explanation:   "Opens " + SystemConfigPath + " in an editor. Changes apply after a rebuild.",
		},
		{
			Name:          OpShowConfig,
			Action:        domain.ActionConfig,
			Description:   "Show the system configuration",
			Templates:     map[domain.Method]string{domain.MethodSystem: "cat " + SystemConfigPath},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassQuery,
			Idempotent:    true,
			Explanation:   "Prints " + SystemConfigPath + ".",
		},
		{
			Name:          OpRemovePath,
			Action:        domain.ActionRemove,
			Description:   "Delete a file or directory",
			TargetKind:    domain.TargetPath,
			Templates:     map[domain.Method]string{domain.MethodSystem: "rm -rf {{target}}"},
			DefaultMethod: domain.MethodSystem,
			Class:         domain.ClassMutation,
			Explanation:   "Permanently deletes {{target}} and everything below it.",
		},
		{
			Name:        OpHelp,
			Action:      domain.ActionHelp,
			Description: "Explain what can be asked",
			Class:       domain.ClassQuery,
			Idempotent:  true,
		},
	}
}
