package config

import (
	"github.com/Veraticus/sheetsync/internal/model"
	"github.com/spf13/viper"
)

// SetDefaults registers the built-in values for every transfer.* key so
// config files only need to name what they change.
func SetDefaults() {
	viper.SetDefault("transfer.wipe_mode", string(model.WipeNone))
	viper.SetDefault("transfer.value_input_option", string(model.ValueInputRaw))
	viper.SetDefault("transfer.cell_ceiling", model.DefaultCellCeiling)
	viper.SetDefault("transfer.max_retries", model.DefaultMaxRetries)
	viper.SetDefault("transfer.max_rows_per_batch", 0)
}

// LoadTransferDefaults returns the request fields every transfer falls back
// to when the caller leaves them unset.
func LoadTransferDefaults() model.TransferRequest {
	return model.TransferRequest{
		DestinationSpreadsheetID: viper.GetString("transfer.destination_spreadsheet_id"),
		DestinationFolderID:      viper.GetString("transfer.destination_folder_id"),
		SelectedTabs:             viper.GetStringSlice("transfer.selected_tabs"),
		WipeMode:                 model.WipeMode(viper.GetString("transfer.wipe_mode")),
		ValueInputOption:         model.ValueInputOption(viper.GetString("transfer.value_input_option")),
		CellCeiling:              viper.GetInt("transfer.cell_ceiling"),
		MaxRetries:               viper.GetInt("transfer.max_retries"),
		MaxRowsPerBatch:          viper.GetInt("transfer.max_rows_per_batch"),
	}
}
