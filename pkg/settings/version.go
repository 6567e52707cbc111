package settings

// set by -ldflags "-X github.com/liut/showsmart/pkg/settings.version=..."
var version = "dev"
