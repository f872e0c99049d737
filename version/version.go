package version

// Version is set at build time with -ldflags "-X github.com/battlesnakeio/fruitsnake/version.Version=..."
var Version = "dev"
