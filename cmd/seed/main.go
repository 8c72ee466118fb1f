package main

import (
	"log"
	"os"
	"time"

	"ai-kindergarten-be/internal/model"
	"ai-kindergarten-be/pkg/ai/vectorindex"
	"ai-kindergarten-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type seedEntry struct {
	Type     string
	Question string
	Answer   string
}

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding Knowledge Base...")

	entries := []seedEntry{
		{Type: "enrollment", Question: "怎么给孩子报名入园", Answer: "家长可在小程序提交报名信息,招生老师会在1个工作日内电话确认,随后安排到园参观和面谈。"},
		{Type: "enrollment", Question: "报名需要准备哪些材料", Answer: "需要户口本、儿童出生证明、预防接种证和一寸照片两张,插班生另需原园的离园证明。"},
		{Type: "enrollment", Question: "招生的年龄要求是什么", Answer: "小班招收3至4周岁、中班4至5周岁、大班5至6周岁的幼儿,托班接收满2周岁的幼儿。"},
		{Type: "fee", Question: "每个月的保教费是多少", Answer: "保教费按月收取,具体标准以园所公示为准,伙食费按实际在园天数结算,多退少补。"},
		{Type: "fee", Question: "学费可以退吗", Answer: "因病假连续缺勤超过5个工作日可凭医院证明按天退伙食费,保教费退费按教育局相关规定执行。"},
		{Type: "attendance", Question: "孩子请假怎么办理", Answer: "请在当天早上9点前通过小程序或电话向班主任请假,病假请说明病情,传染病需提供复课证明。"},
		{Type: "attendance", Question: "考勤是怎么统计的", Answer: "幼儿每天入园刷卡签到,系统自动生成出勤记录,家长可在小程序查看本月出勤明细。"},
		{Type: "schedule", Question: "幼儿园每天的作息安排", Answer: "7:40开始入园晨检,上午集体活动和户外游戏,11:30午餐,12:30午睡,15:00起床加餐,16:30开始离园。"},
		{Type: "schedule", Question: "接送时间是几点", Answer: "早上7:40至8:30入园,下午16:30至17:30离园,延时托管最晚至18:30,需提前向班主任报备。"},
		{Type: "health", Question: "孩子在园生病了怎么处理", Answer: "保健医生会先行观察处理并立即联系家长,如体温超过38.5度或症状加重,请家长尽快接回就医。"},
		{Type: "health", Question: "食谱是怎么安排的", Answer: "每周食谱由保健医生和营养师共同制定,每日三餐两点,每周一在公示栏和小程序同步公布。"},
		{Type: "parent", Question: "怎么和班主任沟通孩子的情况", Answer: "可通过小程序留言或预约面谈,班主任每天离园后统一回复,紧急事项请直接拨打班级电话。"},
		{Type: "activity", Question: "幼儿园有哪些兴趣班", Answer: "目前开设美术、舞蹈、轮滑和围棋兴趣班,在每学期开学第二周开放报名,名额以班级通知为准。"},
		{Type: "teacher", Question: "老师的资质怎么样", Answer: "全园教师均持有教师资格证,保育员持保育员职业资格证上岗,保健医生具有医护专业背景。"},
	}

	created := 0
	for _, e := range entries {
		var existing model.KnowledgeEntry
		if err := db.Where("question = ?", e.Question).First(&existing).Error; err == nil {
			log.Printf("Entry %q already exists, skipping...", e.Question)
			continue
		}

		m := model.KnowledgeEntry{
			Id:          uuid.New(),
			Type:        e.Type,
			Question:    e.Question,
			Answer:      e.Answer,
			ContentHash: vectorindex.ContentHash(e.Question),
			CreatedAt:   time.Now(),
		}
		if err := db.Create(&m).Error; err != nil {
			log.Printf("Error creating entry %q: %v", e.Question, err)
			continue
		}
		created++
	}

	log.Printf("✅ Knowledge seeding completed: %d new entries. Run an index optimize job to embed them.", created)
}
