package constants

// DefaultEnvPath is the default path to the .env file
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the config.toml file
const DefaultConfigPath = "./config.toml"

// DefaultStatePath is where job state is kept when crontabber.database is unset.
const DefaultStatePath = "./crontabber.json"
