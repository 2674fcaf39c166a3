package models

// Tag is a feed navigation facet
type Tag struct {
	ID   string `gorm:"primaryKey;type:varchar(36);column:id" json:"id"`
	Name string `gorm:"type:varchar(50);not null;uniqueIndex:idx_tags_name;column:name" json:"name"`
}

// TableName specifies the table name for Tag
func (Tag) TableName() string {
	return "tags"
}
