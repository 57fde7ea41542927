// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "DermaScan")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "dermascan.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("dermnet.debug", false)
	viper.SetDefault("dermnet.modelpath", "")
	viper.SetDefault("dermnet.labelpath", "")
	viper.SetDefault("dermnet.threads", 0)
	viper.SetDefault("dermnet.usexnnpack", true)
	viper.SetDefault("dermnet.inputsize", 224)

	viper.SetDefault("webserver.debug", false)
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8090")

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "dermascan.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "dermascan")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "dermascan")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
