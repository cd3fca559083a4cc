package database

import (
	"fmt"
	"log"

	"github.com/malishaedu/admissions-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedUniversities(); err != nil {
		return fmt.Errorf("failed to seed universities: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedUniversities creates the partner universities. The ingestion engine
// never creates universities itself, so every institution whose documents
// will be ingested must be listed here or added through the backoffice.
func (s *Seeder) SeedUniversities() error {
	// Check if universities already exist
	var count int64
	if err := s.db.Model(&model.University{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Universities already exist, skipping...")
		return nil
	}

	universities := []model.University{
		{
			Name:        "Harbin Institute of Technology",
			NameCN:      "哈尔滨工业大学",
			City:        "Harbin",
			Province:    "Heilongjiang",
			Aliases:     datatypes.JSON(`["HIT", "Harbin Tech"]`),
			ProjectTags: datatypes.JSON(`["985", "211", "C9"]`),
			Website:     "http://en.hit.edu.cn",
		},
		{
			Name:        "Beihang University",
			NameCN:      "北京航空航天大学",
			City:        "Beijing",
			Province:    "Beijing",
			Aliases:     datatypes.JSON(`["BUAA", "Beijing University of Aeronautics and Astronautics"]`),
			ProjectTags: datatypes.JSON(`["985", "211"]`),
			Website:     "https://ev.buaa.edu.cn",
		},
		{
			Name:        "Zhejiang University",
			NameCN:      "浙江大学",
			City:        "Hangzhou",
			Province:    "Zhejiang",
			Aliases:     datatypes.JSON(`["ZJU"]`),
			ProjectTags: datatypes.JSON(`["985", "211", "C9"]`),
			Website:     "https://www.zju.edu.cn/english/",
		},
		{
			Name:     "Nanjing University of Information Science and Technology",
			NameCN:   "南京信息工程大学",
			City:     "Nanjing",
			Province: "Jiangsu",
			Aliases:  datatypes.JSON(`["NUIST"]`),
			Website:  "https://en.nuist.edu.cn",
		},
		{
			Name:        "Wuhan University of Technology",
			NameCN:      "武汉理工大学",
			City:        "Wuhan",
			Province:    "Hubei",
			Aliases:     datatypes.JSON(`["WUT"]`),
			ProjectTags: datatypes.JSON(`["211"]`),
			Website:     "http://english.whut.edu.cn",
		},
	}

	for i := range universities {
		if err := s.db.Create(&universities[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Created %d universities\n", len(universities))
	return nil
}
