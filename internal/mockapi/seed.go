package mockapi

import (
	"fmt"

	"github.com/waabox/constitutiongpt/internal/domain"
)

// Seeded accounts.
const (
	AdminUsername  = "admin"
	AdminPassword  = "admin123"
	LawyerUsername = "adv.meera"
	LawyerPassword = "lawyer123"
)

var defaultTopics = []struct {
	title, description, content string
}{
	{
		"Fundamental Rights",
		"Basic rights guaranteed to all citizens of India",
		"(Source: Part III, Article 12-35) The Fundamental Rights include: Right to Equality (Article 14-18), Right to Freedom (Article 19-22), Right against Exploitation (Article 23-24), Right to Freedom of Religion (Article 25-28), Cultural and Educational Rights (Article 29-30), and Right to Constitutional Remedies (Article 32).",
	},
	{
		"Directive Principles",
		"Guidelines for the government to establish social and economic democracy",
		"(Source: Part IV, Article 36-51) Directive Principles of State Policy include principles related to social justice, economic welfare, foreign policy, and legal principles like Uniform Civil Code (Article 44).",
	},
	{
		"Fundamental Duties",
		"Moral obligations of citizens to promote patriotism and unity",
		"(Source: Part IV-A, Article 51A) Fundamental Duties include respecting the Constitution, cherishing noble ideals, defending the country, and promoting harmony.",
	},
	{
		"Union Executive",
		"The President, Vice-President, Prime Minister and Council of Ministers",
		"(Source: Part V, Chapter I, Article 52-78) The Union Executive consists of the President (Article 52), Vice-President (Article 63), and the Council of Ministers headed by the Prime Minister (Article 74).",
	},
	{
		"Parliament",
		"The supreme legislative body of India consisting of Lok Sabha and Rajya Sabha",
		"(Source: Part V, Chapter II, Article 79-122) The Parliament consists of the President and two Houses: Rajya Sabha (Article 80) and Lok Sabha (Article 81).",
	},
	{
		"Judiciary",
		"The integrated judicial system with Supreme Court at the apex",
		"(Source: Part V, Chapter IV, Article 124-147) The Supreme Court of India (Article 124) is the highest court, followed by High Courts (Article 214) and subordinate courts.",
	},
	{
		"Bharatiya Nyaya Sanhita (BNS), 2023",
		"The new criminal code replacing the Indian Penal Code (IPC)",
		"(Source: BNS, 2023) Replaces IPC 1860. Key Sections: Sedition is replaced by 'Acts endangering sovereignty' (Section 150), Mob Lynchings (Section 103), and Organized Crime (Section 109).",
	},
	{
		"Bharatiya Nagarik Suraksha Sanhita (BNSS), 2023",
		"New procedural law replacing the Code of Criminal Procedure (CrPC)",
		"(Source: BNSS, 2023) Replaces CrPC 1973. Key Changes: Timeline for filing chargesheets (Section 193), Video conferencing for trials (Section 532), and zero FIR (Section 173).",
	},
	{
		"Bharatiya Sakshya Adhiniyam (BSA), 2023",
		"New evidence law replacing the Indian Evidence Act",
		"(Source: BSA, 2023) Replaces Indian Evidence Act 1872. Expands evidence to include digital records (Section 2), Primary evidence (Section 57), and Secondary evidence (Section 58).",
	},
}

func (s *store) seed() error {
	for _, t := range defaultTopics {
		s.addTopic(t.title, t.description, t.content)
	}
	if _, err := s.createUser(newUser{
		Username: AdminUsername,
		Email:    "admin@constitutiongpt.com",
		Password: AdminPassword,
		Role:     domain.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	lawyer, err := s.createUser(newUser{
		Username: LawyerUsername,
		Email:    "meera@constitutiongpt.com",
		Password: LawyerPassword,
		Role:     domain.RoleLawyer,
		Phone:    "+91 98200 00000",
		Address:  "Chamber 12, High Court Annexe",
		City:     "Mumbai",
	})
	if err != nil {
		return fmt.Errorf("seeding lawyer: %w", err)
	}
	return s.setVerified(lawyer.ID, true)
}
