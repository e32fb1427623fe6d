package interpret

// HelpText lists example requests.
const HelpText = `Tell me what you want in plain words. For example:

  install firefox              install a package for your user
  install vim system-wide      add a package to configuration.nix
  try htop                     open a temporary shell with a package
  remove firefox               uninstall a package
  search for python            search nixpkgs
  update my system             upgrade NixOS
  list generations             show system generations
  roll back                    return to the previous generation
  clean up disk space          collect garbage
  restart nginx                control a service
  edit the configuration       open configuration.nix

Nothing runs until you ask for it with --execute, and risky commands need a
typed confirmation.`
