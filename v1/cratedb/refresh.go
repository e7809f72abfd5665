package cratedb

import (
	"gorm.io/gorm"
)

const refreshCallbackName = "cratedb:refresh"

// RefreshPlugin is a gorm plugin that runs REFRESH TABLE after successful
// create, update and delete statements. CrateDB makes writes visible to
// queries only after a refresh, which would otherwise happen on the table's
// refresh interval.
type RefreshPlugin struct{}

func (p *RefreshPlugin) Name() string {
	return refreshCallbackName
}

func (p *RefreshPlugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register(refreshCallbackName, refreshTable); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register(refreshCallbackName, refreshTable); err != nil {
		return err
	}
	return db.Callback().Delete().After("gorm:delete").Register(refreshCallbackName, refreshTable)
}

func refreshTable(tx *gorm.DB) {
	if tx.Error != nil || tx.DryRun || tx.Statement.Table == "" {
		return
	}
	if tx.Statement.RowsAffected == 0 {
		return
	}

	stmt := "REFRESH TABLE " + tx.Statement.Quote(tx.Statement.Table)
	err := tx.Session(&gorm.Session{NewDB: true, Context: tx.Statement.Context}).Exec(stmt).Error
	if err != nil {
		_ = tx.AddError(err)
	}
}

// Refresh makes recent writes to tables visible. Statements issued through
// Exec bypass the plugin and call this instead.
func Refresh(db *gorm.DB, tables ...string) error {
	for _, table := range tables {
		if err := db.Exec("REFRESH TABLE " + db.Statement.Quote(table)).Error; err != nil {
			return err
		}
	}
	return nil
}
